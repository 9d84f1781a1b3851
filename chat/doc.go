// Package chat contains the chat message model, the message sources feeding the
// overlay, and the active-user extractor.
//
// It provides:
//   - Message: the immutable record of one received chat line.
//   - TwitchSource: connects anonymously to Twitch IRC for one channel and
//     pushes every PRIVMSG into a Sink. Reconnects are handled here with a
//     fixed delay; the overlay only observes messages and a connected flag.
//   - Demo: deterministic playback of canned messages for local testing.
//   - Log: bounded buffer of the most recent messages.
//   - ActiveUsers: usernames that posted within the trailing window.
//
// No credentials are used. The IRC client logs in as an anonymous
// "justinfan" user, which is read-only.
package chat
