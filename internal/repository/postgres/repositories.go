package postgres

import "github.com/jackc/pgx/v5/pgxpool"

// Repositories groups concrete PostgreSQL repository implementations.
type Repositories struct {
	Users     *UserRepository
	Incidents *IncidentRepository
	Stories   *PeaceStoryRepository
}

// NewRepositories wires all repositories backed by the provided pool.
func NewRepositories(pool *pgxpool.Pool) *Repositories {
	return &Repositories{
		Users:     NewUserRepository(pool),
		Incidents: NewIncidentRepository(pool),
		Stories:   NewPeaceStoryRepository(pool),
	}
}
