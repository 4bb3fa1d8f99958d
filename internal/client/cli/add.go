package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/dmitrijs2005/storykeeper/internal/client/models"
)

// addStory collects a story from the user and submits it through the sync
// controller. Offline or with a dead network the story is queued as a
// draft and replayed automatically later.
func (a *App) addStory(ctx context.Context) {
	description, err := GetSimpleText(a.reader, "Story description", a.out)
	if err != nil {
		fmt.Fprintf(a.out, "error: %v\n", err)
		return
	}

	photoPath, err := GetSimpleText(a.reader, "Path to photo", a.out)
	if err != nil {
		fmt.Fprintf(a.out, "error: %v\n", err)
		return
	}
	photo, err := os.ReadFile(photoPath)
	if err != nil {
		fmt.Fprintf(a.out, "cannot read photo: %v\n", err)
		return
	}

	payload := models.StoryPayload{
		Description: description,
		Photo:       photo,
		PhotoName:   filepath.Base(photoPath),
	}

	loc, err := GetSimpleText(a.reader, "Location \"lat lon\" (empty to skip)", a.out)
	if err != nil {
		fmt.Fprintf(a.out, "error: %v\n", err)
		return
	}
	if loc != "" {
		lat, lon, err := parseLocation(loc)
		if err != nil {
			fmt.Fprintf(a.out, "error: %v\n", err)
			return
		}
		payload.Latitude = &lat
		payload.Longitude = &lon
	}

	out, err := a.controller.CreateStory(ctx, payload, a.currentToken())
	if err != nil {
		fmt.Fprintf(a.out, "error: %v\n", err)
		return
	}

	if out.Queued {
		fmt.Fprintf(a.out, "Saved offline as draft #%d; it will sync when the connection returns.\n", out.LocalID)
	} else {
		fmt.Fprintf(a.out, "Story published (id %s).\n", out.StoryID)
	}
}

func parseLocation(s string) (lat, lon float64, err error) {
	var latStr, lonStr string
	if _, err := fmt.Sscan(s, &latStr, &lonStr); err != nil {
		return 0, 0, fmt.Errorf("expected \"lat lon\": %w", err)
	}
	lat, err = strconv.ParseFloat(latStr, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("bad latitude %q", latStr)
	}
	lon, err = strconv.ParseFloat(lonStr, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("bad longitude %q", lonStr)
	}
	return lat, lon, nil
}
