// Package notion is a client for the internal protocol of the Notion
// workspace, covering what the public API cannot do: AI conversations,
// backlinks, activity logs and inline comments.
//
// # Connection
//
// Every call is a JSON POST to a fixed endpoint under /api/v3/, made through
// a [connection.Connection]. Use [New] with a [connection.Config] for the
// HTTPS transport, or [FromConnection] to supply your own. Credentials are
// resolved by the caller and only attached by the transport.
//
// # Records
//
// Document calls answer with a [recordmap.RecordMap], a read-only snapshot of
// entity tables. Tombstoned blocks are invisible to every lookup. Rich text
// properties decode to [richtext.RichText], and collection rows flatten
// through their schema with the [property] package.
//
// # AI conversations
//
// [Client.RunInference] streams one conversation turn. The two wire shapes
// of the answer stream are normalized by the [inference] package, so the
// sink only ever receives appended text.
package notion
