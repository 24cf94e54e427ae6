package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/brianvoe/gofakeit/v7"

	"github.com/smileworks/dental-booking-service/internal/booking"
	"github.com/smileworks/dental-booking-service/internal/config"
	"github.com/smileworks/dental-booking-service/internal/store"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("seed starting")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config load error: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	st, err := store.ConnectMongo(ctx, cfg.MongoURI, cfg.MongoDatabase)
	if err != nil {
		log.Fatalf("connect mongo: %v", err)
	}
	defer func() { _ = st.Close(context.Background()) }()

	gofakeit.Seed(time.Now().UnixNano())

	dentistIDs, err := seedDentists(ctx, st, 8)
	if err != nil {
		log.Fatalf("seed dentists: %v", err)
	}
	if err := seedAvailability(ctx, st, dentistIDs, 14); err != nil {
		log.Fatalf("seed availability: %v", err)
	}

	log.Println("seed complete")
}

func seedDentists(ctx context.Context, st store.Store, count int) ([]string, error) {
	log.Printf("seeding %d dentists", count)

	specializations := []string{
		"General Dentistry",
		"Orthodontics",
		"Periodontics",
		"Endodontics",
		"Pediatric Dentistry",
		"Oral Surgery",
		"Prosthodontics",
		"Cosmetic Dentistry",
	}
	languages := []string{"English", "English, Spanish", "English, French", "English, Mandarin"}

	ids := make([]string, 0, count)
	for i := 0; i < count; i++ {
		d := booking.Dentist{
			FirstName:         gofakeit.FirstName(),
			LastName:          gofakeit.LastName(),
			Specialization:    specializations[i%len(specializations)],
			YearsOfExperience: gofakeit.Number(2, 30),
			Education:         fmt.Sprintf("DDS, %s University", gofakeit.City()),
			Certifications:    "Board Certified",
			Email:             gofakeit.Email(),
			PhoneNumber:       gofakeit.Phone(),
			LicenseNumber:     fmt.Sprintf("DL-%06d", gofakeit.Number(100000, 999999)),
			Languages:         languages[gofakeit.Number(0, len(languages)-1)],
			CreatedAt:         time.Now(),
			UpdatedAt:         time.Now(),
		}

		id, err := st.Insert(ctx, store.CollectionDentists, d)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}

	log.Println("dentists seeded")
	return ids, nil
}

// seedAvailability writes a grid of date-bound 30-minute slots, 09:00-16:30,
// for each working day in the next `days` days. Weekends are skipped.
func seedAvailability(ctx context.Context, st store.Store, dentistIDs []string, days int) error {
	log.Printf("seeding availability for %d dentists over %d days", len(dentistIDs), days)

	total := 0
	today := time.Now()

	for _, dentistID := range dentistIDs {
		for day := 1; day <= days; day++ {
			date := today.AddDate(0, 0, day)
			if date.Weekday() == time.Saturday || date.Weekday() == time.Sunday {
				continue
			}

			dateStr := date.Format("2006-01-02")
			weekday, err := booking.ResolveDayOfWeek(dateStr)
			if err != nil {
				return err
			}

			for hour := 9; hour < 17; hour++ {
				for _, minute := range []int{0, 30} {
					slot := booking.AvailabilitySlot{
						DentistID:   dentistID,
						DayOfWeek:   weekday,
						Date:        dateStr,
						SlotTime:    fmt.Sprintf("%02d:%02d", hour, minute),
						IsAvailable: true,
						CreatedAt:   time.Now(),
						UpdatedAt:   time.Now(),
					}
					if _, err := st.Insert(ctx, store.CollectionAvailability, slot); err != nil {
						return err
					}
					total++
				}
			}
		}
	}

	log.Printf("availability seeded: %d slots", total)
	return nil
}
