package api

import (
	"github.com/JaimeStill/merit/internal/generation"
	"github.com/JaimeStill/merit/internal/scores"
	"github.com/JaimeStill/merit/internal/scoring"
	"github.com/JaimeStill/merit/internal/sources"
)

// Domain holds all domain systems that comprise the API.
type Domain struct {
	Scores     scores.System
	Generation generation.System
}

// NewDomain creates all domain systems from the API runtime.
func NewDomain(runtime *Runtime) *Domain {
	db := runtime.Database.Connection()

	source := sources.NewPostgres(db, runtime.Logger)
	store := scores.NewStore(db, runtime.Logger)

	baseline := runtime.Scoring.Baseline()
	calculator := scoring.NewCalculator(scoring.CalculatorConfig{
		Source:             source,
		Engagement:         sources.Neutral{},
		Development:        sources.Neutral{},
		EngagementBaseline: &baseline,
	})

	scoresSystem := scores.New(
		store,
		runtime.Events,
		runtime.Logger,
		runtime.Pagination,
	)

	generationSystem := generation.New(
		runtime.Scoring,
		calculator,
		source,
		store,
		generation.NewArchive(runtime.Storage, runtime.Logger),
		runtime.Events,
		runtime.Metrics,
		runtime.Logger,
	)

	return &Domain{
		Scores:     scoresSystem,
		Generation: generationSystem,
	}
}
