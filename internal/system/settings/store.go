// Copyright (c) 2026 Onnanoko. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package settings

import "context"

// Repository defines the data access contract for site settings.
type Repository interface {
	/*
		Load reads every stored setting.

		Unknown keys are ignored and missing keys keep their [Defaults] value.

		Returns:
		  - *Settings: The decoded snapshot
		  - error: Database retrieval failures
	*/
	Load(ctx context.Context) (*Settings, error)

	/*
		Save writes every field of settings in a single transaction.

		Returns:
		  - error: Storage failures
	*/
	Save(ctx context.Context, settings Settings) error
}
