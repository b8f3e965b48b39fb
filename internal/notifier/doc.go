// Package notifier announces newly discovered museum events.
//
// A DryRunNotifier prints the posts that would be made; a TwitterNotifier
// posts them with OAuth1 credentials taken from the environment, pausing
// between posts.
package notifier
