package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"arkhive.dev/hearth/internal/database/query"
	"arkhive.dev/hearth/internal/entity"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// ServiceGamesTable is the fixed table every service game read targets.
const ServiceGamesTable = "service_games"

var (
	ErrNoService  = errors.New("no service provided")
	ErrNoValue    = errors.New("no value provided")
	ErrDuplicated = errors.New("more than one service game matched")
)

// GetServiceGames returns every service game row matching criteria.
func (databaseEngine *DatabaseEngine) GetServiceGames(ctx context.Context, criteria query.Criteria) (rows []query.Row, err error) {
	var database *sql.DB
	if database, err = databaseEngine.SQLDB(); err != nil {
		return
	}
	return query.FilteredQuery(ctx, database, ServiceGamesTable, criteria)
}

// GetServiceGamesForService returns every row owned by service.
func (databaseEngine *DatabaseEngine) GetServiceGamesForService(ctx context.Context, service string) (rows []query.Row, err error) {
	if service == "" {
		err = ErrNoService
		return
	}
	return databaseEngine.GetServiceGames(ctx, query.Criteria{
		Filters: map[string]interface{}{"service": service},
	})
}

// GetServiceGame looks up a single game of service by its appid.
func (databaseEngine *DatabaseEngine) GetServiceGame(ctx context.Context, service string, value string) (query.Row, error) {
	return databaseEngine.GetServiceGameByField(ctx, service, "appid", value)
}

// GetServiceGameByField looks up a single game of service by an arbitrary
// field. A nil row without error means nothing matched. More than one
// match is resolved by the engine duplicate policy: the first row wins
// with a data-integrity warning, or the lookup fails when the policy
// demands it.
func (databaseEngine *DatabaseEngine) GetServiceGameByField(ctx context.Context, service string, field string, value string) (row query.Row, err error) {
	if service == "" {
		err = ErrNoService
		return
	}
	if value == "" {
		err = ErrNoValue
		return
	}
	var rows []query.Row
	if rows, err = databaseEngine.GetServiceGames(ctx, query.Criteria{
		Filters: map[string]interface{}{
			"service": service,
			field:     value,
		},
	}); err != nil {
		return
	}
	if len(rows) == 0 {
		return
	}
	if len(rows) > 1 {
		if databaseEngine.DuplicatePolicy == DuplicatesFail {
			err = fmt.Errorf("%w: %d rows for %s %q on %s", ErrDuplicated, len(rows), field, value, service)
			return
		}
		logrus.Warnf("More than one game found for %s %q on %s", field, value, service)
	}
	row = rows[0]
	return
}

// StoreServiceGame persists serviceGame, overwriting the stored row
// carrying the same (service, appid) pair when one exists.
func (databaseEngine *DatabaseEngine) StoreServiceGame(ctx context.Context, serviceGame *entity.ServiceGame) (err error) {
	var existing entity.ServiceGame
	result := databaseEngine.database.WithContext(ctx).
		Where("service = ? AND appid = ?", serviceGame.Service, serviceGame.AppID).
		First(&existing)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			if result := databaseEngine.database.WithContext(ctx).Create(serviceGame); result.Error != nil {
				err = result.Error
			}
			return
		}
		err = result.Error
		return
	}
	serviceGame.Id = existing.Id
	if result := databaseEngine.database.WithContext(ctx).Save(serviceGame); result.Error != nil {
		err = result.Error
	}
	return
}
