package db

import (
	"fmt"
	"log"
	"math/rand"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SeedTestData resets the database and populates it with demo users, swipes
// and the matches implied by mutual likes.
//
// Behavior:
//  1. Clears existing data in all tables.
//  2. Creates 20 users (10 male, 10 female) with hashed passwords and profiles.
//  3. Generates swipes with ~70% likes; every 3rd pair is forced mutual, and
//     each mutual pair gets its match row and empty channel.
//
// Compatible with both MySQL and SQLite.
func SeedTestData(db *gorm.DB) error {
	r := rand.New(rand.NewSource(time.Now().UnixNano()))

	// --- Fresh start ---
	for _, table := range []string{"messages", "channels", "matches", "swipes", "users"} {
		if err := db.Exec("DELETE FROM " + table).Error; err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}

	switch db.Dialector.Name() {
	case "mysql":
		db.Exec("ALTER TABLE users AUTO_INCREMENT = 1")
		db.Exec("ALTER TABLE messages AUTO_INCREMENT = 1")
	case "sqlite":
		db.Exec("DELETE FROM sqlite_sequence WHERE name IN ('users', 'messages')")
	}

	log.Println("Cleared existing data")

	bios := []string{
		"Coffee first, questions later.",
		"Looking for someone to share fries with.",
		"Amateur chef, professional eater.",
		"Will beat you at mini golf.",
		"Dog person. Non-negotiable.",
	}

	// --- Seed Users (10 male, 10 female) ---
	for i := 1; i <= 20; i++ {
		hash, err := bcrypt.GenerateFromPassword([]byte("password"), bcrypt.DefaultCost)
		if err != nil {
			return fmt.Errorf("failed to hash password: %w", err)
		}

		gender := "male"
		if i > 10 {
			gender = "female"
		}

		user := User{
			Username:     fmt.Sprintf("user%d", i),
			Email:        fmt.Sprintf("user%d@example.com", i),
			PasswordHash: string(hash),
			DisplayName:  fmt.Sprintf("User %d", i),
			Age:          18 + r.Intn(15),
			Bio:          bios[r.Intn(len(bios))],
			PhotoURLs: strings.Join([]string{
				fmt.Sprintf("https://picsum.photos/seed/%d-a/400/600", i),
				fmt.Sprintf("https://picsum.photos/seed/%d-b/400/600", i),
			}, ","),
			Gender:      gender,
			GoldMember:  i%7 == 0,
			MaxDistance: 50,
			AgeMin:      18,
			AgeMax:      30,
			ShowMen:     gender == "female",
			ShowWomen:   gender == "male",
			Active:      true,
			LastLoginAt: time.Now().Add(-time.Duration(r.Intn(500)) * time.Hour),
		}

		if err := db.Create(&user).Error; err != nil {
			return fmt.Errorf("failed to seed user: %w", err)
		}
	}
	log.Println("Seeded 20 users.")

	// --- Seed Swipes ---
	counter := 0
	for actorID := uint64(1); actorID <= 20; actorID++ {
		for j := 0; j < 12; j++ { // each user decides on ~12 others
			recipientID := uint64(r.Intn(20) + 1)
			if actorID == recipientID {
				continue
			}

			var actor, recipient User
			if err := db.First(&actor, actorID).Error; err != nil {
				continue
			}
			if err := db.First(&recipient, recipientID).Error; err != nil {
				continue
			}
			if actor.Gender == recipient.Gender {
				continue
			}

			// like probability 70%
			liked := r.Intn(100) < 70

			// guarantee mutual likes every 3rd pair
			if counter%3 == 0 {
				liked = true
				recip := Swipe{ActorID: recipientID, RecipientID: actorID, Liked: true}
				db.Clauses(clause.OnConflict{DoNothing: true}).Create(&recip)
			}

			swipe := Swipe{ActorID: actorID, RecipientID: recipientID, Liked: liked}
			res := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&swipe)
			if res.Error != nil {
				return fmt.Errorf("failed to seed swipe: %w", res.Error)
			}

			if liked {
				if err := seedMatchIfMutual(db, actorID, recipientID); err != nil {
					return err
				}
			}

			counter++
		}
	}

	return nil
}

// seedMatchIfMutual materializes a match (and its channel) when both likes exist.
func seedMatchIfMutual(db *gorm.DB, a, b uint64) error {
	var n int64
	if err := db.Model(&Swipe{}).
		Where("actor_id = ? AND recipient_id = ? AND liked = true", b, a).
		Count(&n).Error; err != nil {
		return err
	}
	if n == 0 {
		return nil
	}

	lo, hi, key := CanonicalPair(a, b)
	match := Match{
		ID:          uuid.NewString(),
		PairKey:     key,
		UserAID:     lo,
		UserBID:     hi,
		LastMessage: "Start the conversation!",
	}
	if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&match).Error; err != nil {
		return fmt.Errorf("failed to seed match: %w", err)
	}

	var existing Match
	if err := db.Where("pair_key = ?", key).First(&existing).Error; err != nil {
		return err
	}
	channel := Channel{MatchID: existing.ID}
	return db.Clauses(clause.OnConflict{DoNothing: true}).Create(&channel).Error
}
