package gamevault

import "time"

// publicationTransition is one requested change to a single channel's
// publication state. Modeling publish/unpublish as explicit transitions keeps
// the timestamp rules in one place instead of scattering flag writes across
// call sites.
type publicationTransition struct {
	Channel Channel
	Publish bool
}

// next computes the flag and timestamp the game should carry after the
// transition.
//
// Publishing an already-published channel is a no-op and keeps the original
// timestamp. Publishing after an unpublish overwrites the timestamp.
// Unpublishing clears the flag but leaves the last-publish timestamp in
// place until the next publish overwrites it. The other channel is never
// touched.
func (t publicationTransition) next(g *Game, now time.Time) (published bool, at *time.Time) {
	current := g.PublishedTo(t.Channel)
	currentAt := g.PublishedAt(t.Channel)

	if !t.Publish {
		return false, currentAt
	}
	if current {
		return true, currentAt
	}
	ts := now
	return true, &ts
}

// ApplyPublication writes one channel's state onto the game value. Repository
// implementations use it so the two channels' fields stay independent.
func ApplyPublication(g *Game, c Channel, published bool, at *time.Time) {
	switch c {
	case ChannelMarketplace:
		g.PublishedToMarketplace = published
		g.MarketplacePublishedAt = at
	case ChannelCommunity:
		g.PublishedToCommunity = published
		g.CommunityPublishedAt = at
	}
}
