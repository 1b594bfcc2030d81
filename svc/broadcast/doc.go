// Package broadcast fans a newsletter out to every active subscriber.
//
// Broadcast validates the request and snapshots the recipients, then hands
// delivery to a tracked background group and returns immediately. Sends are
// staggered, each runs under its own timeout, and the batch outcome is
// logged and recorded in metrics once every send has finished. Delivery is
// best effort: there is no retry and no exactly-once guarantee.
//
// Content is trusted admin HTML. With FormatMarkdown it is first rendered to
// HTML with goldmark.
package broadcast
