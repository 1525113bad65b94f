package testutils

import (
	"context"
	"log"
	"time"

	"github.com/itbasis/go-clock"
	"github.com/vietd88/grubberbot/containers"
	"github.com/vietd88/grubberbot/db"
	"github.com/vietd88/grubberbot/model"
)

const (
	TestSeason = "2024March"
	TeamA      = "Team Carlsen"
	TeamB      = "Team Nepomniachtchi"
)

// Chat users whose handles match the fixtures served by FakeChesscomServer.
var (
	Alice = model.ChatUser{ExternalID: "100000000000000001", DisplayName: "Alice"}
	Bob   = model.ChatUser{ExternalID: "100000000000000002", DisplayName: "Bob"}
	Carol = model.ChatUser{ExternalID: "100000000000000003", DisplayName: "Carol"}
	Dave  = model.ChatUser{ExternalID: "100000000000000004", DisplayName: "Dave"}
	Erin  = model.ChatUser{ExternalID: "100000000000000005", DisplayName: "Erin"}
	Frank = model.ChatUser{ExternalID: "100000000000000006", DisplayName: "Frank"}

	Handles = map[string]string{
		Alice.ExternalID: "alice",
		Bob.ExternalID:   "bob",
		Carol.ExternalID: "carol",
		Dave.ExternalID:  "dave",
		Erin.ExternalID:  "erin",
		Frank.ExternalID: "frank",
	}
)

// TestNow is the mock clock's starting time, in the middle of TestSeason.
var TestNow = time.Date(2024, time.March, 15, 12, 0, 0, 0, time.UTC)

type TestDB struct {
	container *containers.DBContainer
	DB        db.DB
	Clock     *clock.Mock
}

func NewTestDB() *TestDB {
	container, err := containers.Start(context.Background())
	if err != nil {
		log.Fatalf("error starting test db: %v", err)
	}
	clock := clock.NewMock()
	clock.Set(TestNow)

	if err := db.Migrate(container.ConnectionString()); err != nil {
		log.Fatalf("error migrating db in test container: %v", err)
	}

	store, err := db.New(context.Background(), container.ConnectionString(), clock)
	if err != nil {
		log.Fatalf("error connecting to db in test container: %v", err)
	}

	if err := InsertTestData(store); err != nil {
		log.Fatalf("error populating db in test container: %v", err)
	}

	return &TestDB{
		container: container,
		DB:        store,
		Clock:     clock,
	}
}

func (t *TestDB) Shutdown() {
	if err := t.container.Stop(context.Background()); err != nil {
		log.Printf("error stopping test db: %v", err)
	}
}

// InsertTestData creates TestSeason with both teams and links every fixture user.
// Nobody has joined the season yet.
func InsertTestData(db db.DB) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	season := model.Season{
		Name:   TestSeason,
		Starts: model.SeasonStart(TestNow, 0),
	}
	if _, err := db.EnsureSeasons(ctx, []model.Season{season}); err != nil {
		return err
	}
	if err := db.AddTeams(ctx, TestSeason, []string{TeamA, TeamB}); err != nil {
		return err
	}

	for _, u := range []model.ChatUser{Alice, Bob, Carol, Dave, Erin, Frank} {
		if _, err := db.LinkHandle(ctx, u, Handles[u.ExternalID]); err != nil {
			return err
		}
	}
	return nil
}
