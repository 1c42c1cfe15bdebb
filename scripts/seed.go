package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/mydscvr/backend/internal/adapters/events"
	"github.com/mydscvr/backend/internal/adapters/search"
	"github.com/mydscvr/backend/internal/domain/entities"
	"github.com/mydscvr/backend/internal/domain/providers"
	mongoclient "github.com/mydscvr/backend/internal/infrastructure/clients/mongo"
	"github.com/mydscvr/backend/internal/infrastructure/clients/redis"
	"github.com/mydscvr/backend/internal/infrastructure/clients/typesense"
	"github.com/mydscvr/backend/pkg/config"
	"github.com/mydscvr/backend/pkg/dateutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if cfg.Mongo.URI == "" {
		log.Fatal("MONGO_URI is required for seeding")
	}

	ctx := context.Background()

	mongoClient, err := mongoclient.NewClient(ctx, &cfg.Mongo)
	if err != nil {
		log.Fatalf("Failed to connect to MongoDB: %v", err)
	}
	defer mongoClient.Close(ctx)

	collection := mongoClient.Collection(cfg.Mongo.EventsCollection)

	if os.Getenv("RESET_DB") == "true" {
		log.Println("RESET_DB=true detected, clearing events before seeding")
		if _, err := collection.DeleteMany(ctx, bson.M{}); err != nil {
			log.Fatalf("Failed to clear events: %v", err)
		}
	}

	seed := sampleEvents(time.Now())
	docs := make([]interface{}, len(seed))
	for i, e := range seed {
		e.ID = primitive.NewObjectID()
		docs[i] = e
	}
	if _, err := collection.InsertMany(ctx, docs); err != nil {
		log.Fatalf("Failed to insert events: %v", err)
	}
	log.Printf("Inserted %d events into %s", len(seed), cfg.Mongo.EventsCollection)

	if cfg.Typesense.APIKey != "" {
		tsClient, err := typesense.NewClient(&cfg.Typesense)
		if err != nil {
			log.Printf("Warning: Typesense unavailable, skipping suggestion index: %v", err)
		} else {
			index := search.NewTypesenseAdapter(tsClient)
			if err := index.InitSchema(ctx); err != nil {
				log.Fatalf("Failed to init Typesense schema: %v", err)
			}
			for _, e := range seed {
				if err := index.Index(ctx, e); err != nil {
					log.Printf("Warning: failed to index %q: %v", e.Title, err)
				}
			}
			log.Printf("Indexed %d events in Typesense", len(seed))
		}
	}

	if cfg.Redis.Enabled {
		redisClient, err := redis.NewClient(&cfg.Redis)
		if err != nil {
			log.Printf("Warning: Redis unavailable, caches will expire on their own: %v", err)
			return
		}
		defer redisClient.Close()

		bus := events.NewRedisEventBus(redisClient)
		defer bus.Close()

		change := entities.NewEventChange("", entities.EventChangeBulkImport, "seed")
		change.Count = len(seed)
		if err := bus.Publish(ctx, providers.EventChannelUpdates, change); err != nil {
			log.Printf("Warning: failed to publish bulk import: %v", err)
		}
	}

	log.Println("Seeding complete")
}

func sampleEvents(now time.Time) []*entities.Event {
	at := func(days, hour int) time.Time {
		d := dateutil.StartOfDay(now).AddDate(0, 0, days)
		return d.Add(time.Duration(hour) * time.Hour).UTC()
	}
	until := func(t time.Time, hours int) *time.Time {
		end := t.Add(time.Duration(hours) * time.Hour)
		return &end
	}
	price := func(v float64) *entities.Pricing {
		return &entities.Pricing{BasePrice: &v, Currency: entities.DefaultCurrency}
	}
	score := func(v int) *int { return &v }
	yes := true

	saturday, _, _ := dateutil.RangeFor(dateutil.ThisWeekend, now)
	weekend := dateutil.InDubai(saturday)

	return []*entities.Event{
		{
			Title:     "Jazz at the Creek",
			Category:  "music",
			Tags:      []string{"jazz", "live music", "concert"},
			Venue:     entities.Venue{Name: "Al Seef", Area: "Bur Dubai", City: "Dubai"},
			Pricing:   price(150),
			StartDate: at(1, 19),
			EndDate:   until(at(1, 19), 3),
			Status:    "active",
		},
		{
			Title:            "Kite Beach Family Fun Day",
			Category:         "family",
			Tags:             []string{"kids", "outdoor", "beach"},
			Venue:            entities.Venue{Name: "Kite Beach", Area: "Jumeirah", City: "Dubai"},
			Pricing:          price(0),
			StartDate:        weekend.Add(9 * time.Hour).UTC(),
			EndDate:          until(weekend.Add(9*time.Hour).UTC(), 8),
			FamilyScore:      score(90),
			IsFamilyFriendly: &yes,
			Status:           "active",
		},
		{
			Title:     "Marina Rooftop Brunch",
			Category:  "dining",
			Tags:      []string{"brunch", "rooftop"},
			Venue:     entities.Venue{Name: "Pier 7", Area: "Dubai Marina", City: "Dubai"},
			Pricing:   price(450),
			StartDate: weekend.AddDate(0, 0, 1).Add(12 * time.Hour).UTC(),
			EndDate:   until(weekend.AddDate(0, 0, 1).Add(12*time.Hour).UTC(), 4),
			Status:    "active",
		},
		{
			Title:     "Desert Sunrise Yoga",
			Category:  "sports",
			Tags:      []string{"yoga", "wellness", "desert"},
			Venue:     entities.Venue{Name: "Al Qudra Lakes", Area: "Al Qudra", City: "Dubai"},
			Pricing:   price(80),
			StartDate: at(3, 6),
			EndDate:   until(at(3, 6), 2),
			Status:    "active",
		},
		{
			Title:     "Downtown Art Walk",
			Category:  "arts",
			Tags:      []string{"art", "gallery", "exhibition"},
			Venue:     entities.Venue{Name: "Dubai Opera Plaza", Area: "Downtown Dubai", City: "Dubai"},
			Pricing:   price(0),
			StartDate: at(0, 17),
			EndDate:   until(at(0, 17), 30*24),
			Status:    "active",
		},
		{
			Title:       "Global Village Late Nights",
			Category:    "family",
			Tags:        []string{"market", "shows", "food"},
			Venue:       entities.Venue{Name: "Global Village", Area: "Dubailand", City: "Dubai"},
			Pricing:     price(25),
			StartDate:   at(-10, 16),
			EndDate:     until(at(-10, 16), 60*24),
			FamilyScore: score(75),
			Status:      "active",
		},
	}
}
