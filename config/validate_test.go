package config_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/percona/percona-dbcopy-mongodb/config"
)

func TestValidateBatchSize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		size    int
		wantErr bool
	}{
		{"minimum", 1, false},
		{"default", config.DefaultBatchSize, false},
		{"maximum", config.MaxBatchSize, false},
		{"zero", 0, true},
		{"negative", -5, true},
		{"over maximum", config.MaxBatchSize + 1, true},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()

			err := config.ValidateBatchSize(test.size)
			if test.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateClone(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		cfg     config.Config
		wantErr string
	}{
		{
			name: "valid",
			cfg: config.Config{
				Source:    "mongodb://source:27017",
				Target:    "mongodb://target:27017",
				SourceDB:  "app",
				BatchSize: 100,
			},
		},
		{
			name: "same server different db",
			cfg: config.Config{
				Source:    "mongodb://host:27017",
				Target:    "mongodb://host:27017",
				SourceDB:  "app",
				TargetDB:  "app_copy",
				BatchSize: 100,
			},
		},
		{
			name:    "both URIs empty",
			cfg:     config.Config{SourceDB: "app", BatchSize: 100},
			wantErr: "source URI and target URI are empty",
		},
		{
			name: "source empty",
			cfg: config.Config{
				Target:    "mongodb://target:27017",
				SourceDB:  "app",
				BatchSize: 100,
			},
			wantErr: "source URI is empty",
		},
		{
			name: "target empty",
			cfg: config.Config{
				Source:    "mongodb://source:27017",
				SourceDB:  "app",
				BatchSize: 100,
			},
			wantErr: "target URI is empty",
		},
		{
			name: "source db empty",
			cfg: config.Config{
				Source:    "mongodb://source:27017",
				Target:    "mongodb://target:27017",
				BatchSize: 100,
			},
			wantErr: "source database name is empty",
		},
		{
			name: "same server same db",
			cfg: config.Config{
				Source:    "mongodb://host:27017",
				Target:    "mongodb://host:27017",
				SourceDB:  "app",
				BatchSize: 100,
			},
			wantErr: "source and target refer to the same database",
		},
		{
			name: "same server implicit target db",
			cfg: config.Config{
				Source:    "mongodb://host:27017",
				Target:    "mongodb://host:27017",
				SourceDB:  "app",
				TargetDB:  "",
				BatchSize: 100,
			},
			wantErr: "source and target refer to the same database",
		},
		{
			name: "bad batch size",
			cfg: config.Config{
				Source:   "mongodb://source:27017",
				Target:   "mongodb://target:27017",
				SourceDB: "app",
			},
			wantErr: "batch size must be at least 1",
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()

			err := config.ValidateClone(&test.cfg)
			if test.wantErr == "" {
				assert.NoError(t, err)
			} else {
				assert.EqualError(t, err, test.wantErr)
			}
		})
	}
}

func TestValidateDump(t *testing.T) {
	t.Parallel()

	valid := config.Config{
		Source: "mongodb://source:27017",
		DB:     "app",
		Dir:    "/tmp/dump",
	}
	assert.NoError(t, config.ValidateDump(&valid))

	noSource := valid
	noSource.Source = ""
	assert.EqualError(t, config.ValidateDump(&noSource), "source URI is empty")

	noDB := valid
	noDB.DB = ""
	assert.EqualError(t, config.ValidateDump(&noDB), "database name is empty")

	noDir := valid
	noDir.Dir = ""
	assert.EqualError(t, config.ValidateDump(&noDir), "output directory is empty")
}

func TestValidateRestore(t *testing.T) {
	t.Parallel()

	valid := config.Config{
		Target:    "mongodb://target:27017",
		DB:        "app",
		Dir:       "/tmp/dump",
		BatchSize: 100,
	}
	assert.NoError(t, config.ValidateRestore(&valid))

	noTarget := valid
	noTarget.Target = ""
	assert.EqualError(t, config.ValidateRestore(&noTarget), "target URI is empty")

	noDB := valid
	noDB.DB = ""
	assert.EqualError(t, config.ValidateRestore(&noDB), "database name is empty")

	noDir := valid
	noDir.Dir = ""
	assert.EqualError(t, config.ValidateRestore(&noDir), "input directory is empty")

	badBatch := valid
	badBatch.BatchSize = -1
	assert.Error(t, config.ValidateRestore(&badBatch))
}

func TestResolvedTargetDB(t *testing.T) {
	t.Parallel()

	cfg := config.Config{SourceDB: "app"}
	assert.Equal(t, "app", cfg.ResolvedTargetDB())

	cfg.TargetDB = "app_copy"
	assert.Equal(t, "app_copy", cfg.ResolvedTargetDB())
}
