// Package cli provides the interactive ProfileKeeper command-line client.
//
// It wires configuration, local storage, the API client, and an interactive
// loop that supports online/offline operation. Typical flow: start a
// background connectivity watcher and execute user commands.
//
// Key features:
//   - Register / Login / Logout with remember-me
//   - whoami and account listing from the local cache
//   - Avatar upload via presigned URLs
//   - Theme preference stored alongside the session
//
// The loop is started via App.Root(ctx), which blocks until the user exits.
// See App and StartOnlineStatusWatcher for details.
package cli
