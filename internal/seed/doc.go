// Eventfeed - Multi-tenant Real-time Event Feed
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/eventfeed

/*
Package seed loads demo tenants and users at startup.

A seed file is a JSON object keyed by an arbitrary label:

	{
	  "alice": {"username": "alice", "tenant": "company_a", "role": "admin", "token": "alice-token"},
	  "bob":   {"username": "bob",   "tenant": "company_a", "role": "user",  "token": "bob-token"}
	}

Every entry is validated before anything is written. Seeding is idempotent:
tenants are created only when missing and users are matched by username, so
restarting with the same file changes nothing. Tokens are never logged;
tokens generated for entries without one are returned in Result.Generated.

Usage Example:

	file, err := seed.LoadFile(cfg.Seed.File)
	if err != nil {
		return err
	}
	result, err := seed.NewSeeder(directory, users).Apply(ctx, file, cfg.Seed.Tenants)
*/
package seed
