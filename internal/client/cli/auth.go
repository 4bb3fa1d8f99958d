package cli

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/storykeeper/internal/client/repositories/metadata"
)

// Login asks for credentials and opens a session. The last used email is
// remembered in the local store and offered as the default next time.
func (a *App) Login(ctx context.Context) {
	prompt := "Enter email"
	remembered := a.rememberedEmail(ctx)
	if remembered != "" {
		prompt = fmt.Sprintf("Enter email (default %s)", remembered)
	}

	email, err := GetSimpleText(a.reader, prompt, a.out)
	if err != nil {
		fmt.Fprintf(a.out, "error: %v\n", err)
		return
	}
	if email == "" {
		email = remembered
	}

	password, err := GetPassword(a.out)
	if err != nil {
		fmt.Fprintf(a.out, "error: %v\n", err)
		return
	}

	session, err := a.gw.Login(ctx, email, password)
	if err != nil {
		fmt.Fprintf(a.out, "Login failed: %v\n", err)
		return
	}

	a.setSession(session.Token, session.Name)
	a.rememberEmail(ctx, email)
	a.controller.SetOnline(true)
	fmt.Fprintf(a.out, "Welcome, %s!\n", session.Name)
}

func (a *App) Register(ctx context.Context) {
	name, err := GetSimpleText(a.reader, "Enter name", a.out)
	if err != nil {
		fmt.Fprintf(a.out, "error: %v\n", err)
		return
	}
	email, err := GetSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		fmt.Fprintf(a.out, "error: %v\n", err)
		return
	}
	password, err := GetPassword(a.out)
	if err != nil {
		fmt.Fprintf(a.out, "error: %v\n", err)
		return
	}

	if err := a.gw.Register(ctx, name, email, password); err != nil {
		fmt.Fprintf(a.out, "Registration failed: %v\n", err)
		return
	}
	fmt.Fprintln(a.out, "Registered. You can now log in.")
}

// Logout drops the session token. Local data (cached stories, drafts,
// favorites) stays on disk for the next login.
func (a *App) Logout(ctx context.Context) {
	a.setSession("", "")
	fmt.Fprintln(a.out, "Logged out.")
}

func (a *App) rememberedEmail(ctx context.Context) string {
	if a.store == nil {
		return ""
	}
	v, err := a.store.Repos.Metadata.Get(ctx, metadata.KeyUsername)
	if err != nil || v == nil {
		return ""
	}
	return string(v)
}

func (a *App) rememberEmail(ctx context.Context, email string) {
	if a.store == nil {
		return
	}
	if err := a.store.Repos.Metadata.Set(ctx, metadata.KeyUsername, []byte(email)); err != nil {
		a.log.Warn(ctx, "remembering email failed", "error", err)
	}
}
