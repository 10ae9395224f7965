package syncer

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/crypto/bcrypt"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/chainsafe/billing-bridge/pkg/bridge"
	"github.com/chainsafe/billing-bridge/pkg/bridgestore"
)

const (
	fallbackUsername = "user"
	passwordBytes    = 32
)

// BaseUsername derives the username stem from the local part of email:
// accents are folded to their base letters and anything outside [A-Za-z0-9_]
// is dropped.
func BaseUsername(email string) string {
	local := email
	if i := strings.Index(email, "@"); i >= 0 {
		local = email[:i]
	}

	folded, _, err := transform.String(transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC), local)
	if err != nil {
		folded = local
	}

	base := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			return r
		default:
			return -1
		}
	}, folded)
	if base == "" {
		return fallbackUsername
	}
	return base
}

// UsernameCandidates yields base, base1, base2, ...
func UsernameCandidates(base string) bridgestore.UsernameCandidates {
	return func(attempt int) string {
		if attempt == 0 {
			return base
		}
		return base + strconv.Itoa(attempt)
	}
}

// RandomPasswordHash returns the bcrypt hash of a random password nobody
// knows. Local identities authenticate through the billing system, so the
// hash only has to be unguessable and is computed at the minimum cost.
func RandomPasswordHash() (string, error) {
	buf := make([]byte, passwordBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate password: %w", err)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(base64.RawURLEncoding.EncodeToString(buf)), bcrypt.MinCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

func displayName(email, first, last string) string {
	if name := strings.TrimSpace(first + " " + last); name != "" {
		return name
	}
	return email
}

func (e *Engine) createLocalUser(ctx context.Context, email, first, last string) (*bridge.LocalUser, error) {
	hash, err := RandomPasswordHash()
	if err != nil {
		return nil, err
	}

	created, err := e.store.CreateLocalUser(ctx, &bridge.LocalUser{
		Name:         displayName(email, first, last),
		Email:        email,
		PasswordHash: hash,
	}, UsernameCandidates(BaseUsername(email)))
	if err != nil {
		return nil, fmt.Errorf("failed to create local user: %w", err)
	}

	if e.settings.DefaultGroupID > 0 {
		if err := e.store.AddUserGroups(ctx, created.ID, []int64{e.settings.DefaultGroupID}); err != nil {
			return nil, fmt.Errorf("failed to add default group: %w", err)
		}
		created.Groups = append(created.Groups, e.settings.DefaultGroupID)
	}
	return created, nil
}
