package cli

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/storykeeper/internal/client/models"
	"github.com/dmitrijs2005/storykeeper/internal/client/repositories/metadata"
)

func (a *App) list(ctx context.Context) {
	res, err := a.controller.GetStoriesForDisplay(ctx, a.currentToken())
	if err != nil {
		fmt.Fprintf(a.out, "error: %v\n", err)
		return
	}

	if len(res.Stories) == 0 {
		if res.Reason != "" {
			fmt.Fprintf(a.out, "No stories (%s).\n", res.Reason)
		} else {
			fmt.Fprintln(a.out, "No stories yet.")
		}
		return
	}

	if res.FromCache {
		fmt.Fprintln(a.out, "(showing cached stories)")
	}
	for _, s := range res.Stories {
		marker := " "
		if fav, err := a.controller.IsFavorite(ctx, s.ID); err == nil && fav {
			marker = "*"
		}
		line := fmt.Sprintf("%s %s  %s: %s", marker, s.CreatedAt.Format("2006-01-02"), s.AuthorName, s.Description)
		if s.HasLocation() {
			line += fmt.Sprintf("  [%.4f, %.4f]", *s.Latitude, *s.Longitude)
		}
		fmt.Fprintf(a.out, "%s  (id %s)\n", line, s.ID)
	}
}

func (a *App) listFavorites(ctx context.Context) {
	favs, err := a.controller.ListFavorites(ctx)
	if err != nil {
		fmt.Fprintf(a.out, "error: %v\n", err)
		return
	}
	if len(favs) == 0 {
		fmt.Fprintln(a.out, "No favorites yet.")
		return
	}
	for _, f := range favs {
		fmt.Fprintf(a.out, "* %s: %s  (id %s, added %s)\n",
			f.Story.AuthorName, f.Story.Description, f.StoryID, f.AddedAt.Format("2006-01-02"))
	}
}

func (a *App) favorite(ctx context.Context, storyID string) {
	res, err := a.controller.GetStoriesForDisplay(ctx, a.currentToken())
	if err != nil {
		fmt.Fprintf(a.out, "error: %v\n", err)
		return
	}
	for _, s := range res.Stories {
		if s.ID == storyID {
			if err := a.controller.AddFavorite(ctx, s); err != nil {
				fmt.Fprintf(a.out, "error: %v\n", err)
				return
			}
			fmt.Fprintf(a.out, "Added %s to favorites.\n", storyID)
			return
		}
	}
	fmt.Fprintf(a.out, "Story %s not found.\n", storyID)
}

func (a *App) unfavorite(ctx context.Context, storyID string) {
	if err := a.controller.RemoveFavorite(ctx, storyID); err != nil {
		fmt.Fprintf(a.out, "error: %v\n", err)
		return
	}
	fmt.Fprintf(a.out, "Removed %s from favorites.\n", storyID)
}

func (a *App) syncNow(ctx context.Context) {
	res, err := a.controller.DrainPendingDrafts(ctx, a.currentToken())
	if err != nil {
		fmt.Fprintf(a.out, "Sync failed: %v\n", err)
		return
	}
	fmt.Fprintf(a.out, "Sync finished: %d uploaded, %d failed.\n", res.Synced, res.Failed)
}

func (a *App) status(ctx context.Context) {
	fmt.Fprintf(a.out, "Mode: %s\n", a.mode())

	pending, err := a.controller.PendingCount(ctx)
	if err == nil {
		fmt.Fprintf(a.out, "Pending drafts: %d\n", pending)
	}

	failed, err := a.controller.ListFailedDrafts(ctx)
	if err == nil && len(failed) > 0 {
		fmt.Fprintf(a.out, "Drafts given up on after repeated failures: %d\n", len(failed))
		for _, d := range failed {
			fmt.Fprintf(a.out, "  #%d %q (%d attempts)\n", d.LocalID, truncate(d.Description, 40), d.Attempts)
		}
	}

	if a.store != nil {
		if v, err := a.store.Repos.Metadata.Get(ctx, metadata.KeyLastSyncAt); err == nil && v != nil {
			fmt.Fprintf(a.out, "Last sync: %s\n", string(v))
		}
		if v, err := a.store.SchemaVersion(ctx); err == nil {
			fmt.Fprintf(a.out, "Local store: schema v%d\n", v)
		}
		a.printStorageInfo(ctx)
	} else {
		fmt.Fprintln(a.out, "Local store: unavailable (online-only)")
	}
}

// printStorageInfo reports per-table row counts for the local store.
func (a *App) printStorageInfo(ctx context.Context) {
	if n, err := a.store.Repos.Stories.Count(ctx); err == nil {
		fmt.Fprintf(a.out, "  stories:          %d\n", n)
	}
	drafts := 0
	for _, st := range []models.DraftStatus{models.DraftStatusPending, models.DraftStatusUploaded, models.DraftStatusFailed} {
		if n, err := a.store.Repos.Drafts.CountByStatus(ctx, st); err == nil {
			drafts += n
		}
	}
	fmt.Fprintf(a.out, "  drafts:           %d\n", drafts)
	if n, err := a.store.Repos.Favorites.Count(ctx); err == nil {
		fmt.Fprintf(a.out, "  favorites:        %d\n", n)
	}
	if n, err := a.store.Repos.APICache.Count(ctx); err == nil {
		fmt.Fprintf(a.out, "  cached responses: %d\n", n)
	}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
