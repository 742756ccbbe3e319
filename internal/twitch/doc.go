// Package twitch integrates the archive backend with the Twitch API: app
// token lifecycle, webhook subscription management, VOD playback resolution,
// and the single-shot helix/v5/GQL lookups the archiver relies on.
package twitch
