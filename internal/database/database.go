package database

import (
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"sync"

	"arkhive.dev/hearth/internal/entity"
	"arkhive.dev/hearth/internal/folder"
	"arkhive.dev/hearth/pkg/eventemitter"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// DuplicatePolicy selects how single-game lookups behave when more than
// one stored row matches.
type DuplicatePolicy int

const (
	// DuplicatesReturnFirst logs a data-integrity warning and returns the
	// first match.
	DuplicatesReturnFirst DuplicatePolicy = iota
	// DuplicatesFail rejects the lookup with ErrDuplicated.
	DuplicatesFail
)

type DatabaseEngine struct {
	basePath        string
	database        *gorm.DB
	DuplicatePolicy DuplicatePolicy

	// Event emitters
	BootedEventEmitter *eventemitter.EventEmitter[bool]
}

func NewDatabaseEngine(basePath string) (instance *DatabaseEngine) {
	instance = &DatabaseEngine{
		basePath:           basePath,
		DuplicatePolicy:    DuplicatesReturnFirst,
		BootedEventEmitter: &eventemitter.EventEmitter[bool]{},
	}
	return
}

func (databaseEngine *DatabaseEngine) Initialize(waitGroup *sync.WaitGroup) {
	var err error
	logrus.Info("Connecting to database")
	if err = databaseEngine.connectToDatabase(); err != nil {
		panic(err)
	}
	logrus.Info("Applying database migrations")
	if err = databaseEngine.applyMigrations(); err != nil {
		panic(err)
	}
	databaseEngine.BootedEventEmitter.Emit(true)
	waitGroup.Done()
}

func (databaseEngine *DatabaseEngine) Deinitialize() (err error) {
	if databaseEngine.database == nil {
		err = errors.New("database not connected")
		return
	}
	var database *sql.DB
	if database, err = databaseEngine.database.DB(); err != nil {
		return
	}
	if err = database.Close(); err != nil {
		return
	}
	return
}

func (databaseEngine *DatabaseEngine) connectToDatabase() (err error) {
	databasePath := filepath.Join(databaseEngine.basePath, folder.DatabasePath)
	if err = os.MkdirAll(filepath.Dir(databasePath), 0755); err != nil {
		return
	}
	dialector := sqlite.Open(databasePath)
	if databaseEngine.database, err = gorm.Open(dialector, &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
	}); err != nil {
		return
	}
	return
}

func (databaseEngine *DatabaseEngine) applyMigrations() (err error) {
	return databaseEngine.database.AutoMigrate(&entity.ServiceGame{})
}

// SQLDB exposes the underlying connection for the query layer.
func (databaseEngine *DatabaseEngine) SQLDB() (*sql.DB, error) {
	if databaseEngine.database == nil {
		return nil, errors.New("database not connected")
	}
	return databaseEngine.database.DB()
}
