// Package brokerhub provides the client-side model of a shared brokerage
// dashboard: a group account whose members connect their brokers (Dhan,
// Zerodha) so that holdings and positions are aggregated in one place.
//
// The core functionalities include:
//   - Domain records: accounts, memberships, members, broker credentials, and
//     the aggregated holdings and positions returned by the backend.
//   - Views: searching, filtering (profit, loss, long, short), sorting and
//     totalling lines, with exact decimal amounts in rupees.
//   - Forms: declarative validation schemas for every input form, mapping
//     of server rejections onto fields, and wiping of secret inputs.
//   - Session: the authentication snapshot and its versioned on-disk record.
//
// This package serves as the foundational logic for the `bh` command-line
// tool. The HTTP transport lives in package client and the session lifecycle
// in package session.
package brokerhub
