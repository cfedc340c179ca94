// Package source maintains an in-memory registry of the org's record
// sources. A source is a machine or cluster monitor that data can be
// queried from; the agents endpoint supplies the display names. Sources
// that stopped reporting more than a day ago are hidden by default.
package source
