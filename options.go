// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package bsp

// Options configures a Spawn call. It is shared by every backend
// package (thread, net, accel) so application code does not repeat
// the same fluent-builder knobs per backend, the way lfq.Builder
// configures every queue variant from one Options value.
type Options struct {
	LogSink func(string)
}

// NewOptions returns a zero-value Options ready for chaining.
func NewOptions() *Options {
	return &Options{}
}

// WithLogSink installs fn as the destination for every log message
// emitted during Sync's rank-ordered log phase, replacing the default
// of writing to standard output.
func (o *Options) WithLogSink(fn func(string)) *Options {
	o.LogSink = fn
	return o
}
