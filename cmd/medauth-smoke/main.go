// Command medauth-smoke exercises a live identity provider end to end:
// sign-in, session introspection, profile fetch, token refresh, sign-out.
// It is a deployment smoke test, not a benchmark; every step prints what it
// observed and the first failure aborts the run.
//
// Run:
//
//	go run ./cmd/medauth-smoke \
//	  -base-url https://project.example.co \
//	  -apikey $ANON_KEY \
//	  -email alice@example.com -password $PASSWORD
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/caldermed/medauth"
	"github.com/caldermed/medauth/provider"
)

func main() {
	var (
		baseURL  = flag.String("base-url", "", "provider base URL")
		apiKey   = flag.String("apikey", os.Getenv("MEDAUTH_APIKEY"), "provider anon key (or MEDAUTH_APIKEY)")
		email    = flag.String("email", "", "account email")
		password = flag.String("password", os.Getenv("MEDAUTH_PASSWORD"), "account password (or MEDAUTH_PASSWORD)")
		table    = flag.String("profile-table", "profiles", "profile table name")
		timeout  = flag.Duration("timeout", 30*time.Second, "overall run deadline")
	)
	flag.Parse()

	if *baseURL == "" || *apiKey == "" || *email == "" || *password == "" {
		fmt.Fprintln(os.Stderr, "base-url, apikey, email, and password are required")
		os.Exit(2)
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	client, err := provider.NewHTTP(provider.HTTPConfig{
		BaseURL:      *baseURL,
		APIKey:       *apiKey,
		ProfileTable: *table,
	})
	if err != nil {
		fail("client", err)
	}

	svc, err := medauth.New().WithProvider(client).Build()
	if err != nil {
		fail("build", err)
	}
	defer svc.Close()

	step("sign-in")
	sess, err := svc.SignIn(ctx, medauth.Credential{Email: *email, Password: *password})
	if err != nil {
		fail("sign-in", err)
	}
	fmt.Printf("  user %s, token expires in %s\n", sess.UserID, sess.ExpiresIn(time.Now()).Round(time.Second))

	step("session")
	if _, err := svc.Session(ctx); err != nil {
		fail("session", err)
	}

	step("user")
	user, err := svc.User(ctx)
	if err != nil {
		fail("user", err)
	}
	fmt.Printf("  id %s, email %s\n", user.ID, user.Email)

	step("profile")
	profile, err := svc.Profile(ctx, sess.UserID)
	if err != nil {
		fail("profile", err)
	}
	fmt.Printf("  %s %s\n", profile.FirstName, profile.LastName)

	step("refresh")
	refreshed, err := client.RefreshSession(ctx)
	if err != nil {
		fail("refresh", err)
	}
	if refreshed.AccessToken == sess.AccessToken {
		fail("refresh", fmt.Errorf("access token did not rotate"))
	}

	step("sign-out")
	if err := svc.SignOut(ctx); err != nil {
		fail("sign-out", err)
	}

	fmt.Println("ok")
}

func step(name string) {
	fmt.Println("==>", name)
}

func fail(step string, err error) {
	fmt.Fprintf(os.Stderr, "%s: %v\n", step, err)
	os.Exit(1)
}
