package osuapi

import "context"

// UnresolvedDiscussions lists qualified sets carrying at least one
// outstanding suggestion or problem discussion, via
// `beatmapsets/discussions?...only_unresolved=true`. The refresh cycle
// marks matching entries Unresolved so the projector skips them for the
// daily and per-run caps.
func (c *Client) UnresolvedDiscussions(ctx context.Context) ([]int64, error) {
	const path = "/beatmapsets/discussions?beatmapset_status=qualified&message_types[]=suggestion&message_types[]=problem&only_unresolved=true&limit=50"
	var resp discussionsResponse
	if err := c.getJSON(ctx, path, &resp); err != nil {
		return nil, err
	}
	ids := make([]int64, len(resp.Beatmapsets))
	for i, s := range resp.Beatmapsets {
		ids[i] = s.ID
	}
	return ids, nil
}
