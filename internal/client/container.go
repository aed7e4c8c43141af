package client

import (
	"fmt"

	"github.com/saulo-duarte/goal-tracker/internal/apiclient"
	"github.com/saulo-duarte/goal-tracker/internal/config"
	"github.com/saulo-duarte/goal-tracker/internal/credential"
	"github.com/saulo-duarte/goal-tracker/internal/goalcache"
	"github.com/saulo-duarte/goal-tracker/internal/session"
	"github.com/saulo-duarte/goal-tracker/internal/suggestion"
)

type Container struct {
	Store       credential.Store
	API         *apiclient.Client
	Session     *session.Manager
	Goals       *goalcache.Cache
	Suggestions *suggestion.Fetcher
	Controller  *Controller
}

// NewContainer wires the client from settings. An empty credentials path
// keeps the credential in memory only.
func NewContainer(s *config.Settings) (*Container, error) {
	store, err := newStore(s)
	if err != nil {
		return nil, err
	}
	return NewContainerWithStore(s, store), nil
}

func NewContainerWithStore(s *config.Settings, store credential.Store) *Container {
	api := apiclient.New(s.BaseURL, apiclient.WithTimeout(s.RequestTimeout))
	mgr := session.NewManager(store, api)
	api.SetTokenSource(mgr)
	api.OnUnauthorized(mgr.HandleUnauthorized)

	goals := goalcache.New(api, mgr)
	fetcher := suggestion.NewFetcher(api)

	return &Container{
		Store:       store,
		API:         api,
		Session:     mgr,
		Goals:       goals,
		Suggestions: fetcher,
		Controller:  NewController(api, mgr, goals, fetcher),
	}
}

func newStore(s *config.Settings) (credential.Store, error) {
	if s.CredentialsPath == "" {
		return credential.NewMemoryStore(), nil
	}
	if s.CryptoKey == "" {
		return credential.NewFileStore(s.CredentialsPath, nil), nil
	}
	cipher, err := config.NewCipher(s.CryptoKey)
	if err != nil {
		return nil, fmt.Errorf("credential key: %w", err)
	}
	return credential.NewFileStore(s.CredentialsPath, cipher), nil
}
