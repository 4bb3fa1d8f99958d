// Package cli implements the interactive StoryKeeper client: a small REPL
// over the sync controller. It opens the local store (falling back to
// online-only operation when that fails), keeps a background watcher that
// tracks API reachability, and runs retention cleanup once a day.
//
// Commands
//
//	register, login, logout   account/session management
//	add                       create a story (queued as a draft offline)
//	list                      show stories, cached ones when offline
//	favorites, fav, unfav     manage locally pinned stories
//	sync                      replay pending drafts now
//	status                    connectivity, pending/failed drafts, store info
package cli
