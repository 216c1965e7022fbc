package core

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// SeedFile is the YAML fixture layout:
//
//	users:
//	  - name: Alice
//	    email: alice@x.com
//	    password: secret
//	    address: 1, Main St, Springfield
//	workers:
//	  - name: Bob
//	    email: bob@x.com
//	    password: secret
//	    profession: Plumber
//	    hourly_charge: 25.00
//	    city: Springfield
type SeedFile struct {
	Users   []UserSignup   `yaml:"users"`
	Workers []WorkerSignup `yaml:"workers"`
}

// SeedReport counts what a seeding run did.
type SeedReport struct {
	Created int
	Skipped int
}

// ParseSeed decodes a YAML fixture.
func ParseSeed(r io.Reader) (SeedFile, error) {
	var f SeedFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		if errors.Is(err, io.EOF) {
			return SeedFile{}, nil
		}
		return SeedFile{}, fmt.Errorf("parse seed: %w", err)
	}
	return f, nil
}

// ApplySeed registers every account in f. Emails that already exist in the same
// relation are skipped, so running a fixture twice is harmless.
func ApplySeed(ctx context.Context, creds *CredentialService, f SeedFile, log *logrus.Logger) (SeedReport, error) {
	var rep SeedReport
	record := func(kind string, i int, email string, err error) error {
		switch {
		case err == nil:
			rep.Created++
			log.WithFields(logrus.Fields{"role": kind, "email": email}).Info("seeded account")
			return nil
		case errors.Is(err, ErrDuplicateEmail):
			rep.Skipped++
			return nil
		default:
			return fmt.Errorf("%s #%d (%s): %w", kind, i+1, email, err)
		}
	}

	for i, u := range f.Users {
		_, err := creds.RegisterUser(ctx, u)
		if err := record("user", i, u.Email, err); err != nil {
			return rep, err
		}
	}
	for i, w := range f.Workers {
		_, err := creds.RegisterWorker(ctx, w)
		if err := record("worker", i, w.Email, err); err != nil {
			return rep, err
		}
	}
	return rep, nil
}

// SeedFromFile reads path and applies it.
func SeedFromFile(ctx context.Context, creds *CredentialService, path string, log *logrus.Logger) (SeedReport, error) {
	fh, err := os.Open(path)
	if err != nil {
		return SeedReport{}, err
	}
	defer fh.Close()
	f, err := ParseSeed(fh)
	if err != nil {
		return SeedReport{}, err
	}
	return ApplySeed(ctx, creds, f, log)
}
