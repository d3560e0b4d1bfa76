// Package callbackdispatcher fans domain events out to registered HTTP
// callback endpoints. Producers publish fire-and-forget; the dispatcher
// buffers, batches and delivers with retries. Events live in memory only
// and are lost on restart, delivery is at-least-once per endpoint until the
// attempt budget runs out.
package callbackdispatcher
