package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"gorm.io/gorm"

	"shelf-go/internal/config"
	"shelf-go/internal/logger"
	"shelf-go/internal/models"
	"shelf-go/internal/services"
	"shelf-go/internal/storage"
)

func usage() {
	fmt.Println("Usage:")
	fmt.Println("  admin show-friends <userID>      - list raw friend edges and flag anomalies")
	fmt.Println("  admin repair-friends <userID|all> - compact duplicate and self edges, restore mirrors")
	fmt.Println("  admin pending-requests <userID>  - list requests waiting on a user")
}

func main() {
	if len(os.Args) < 3 {
		usage()
		os.Exit(1)
	}

	cfg, err := config.LoadConfig("")
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	zl, err := logger.New(cfg.LogLevel, "console")
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer zl.Sync()

	db, err := storage.InitDB(cfg.Database)
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}

	userRepo := storage.NewGormUserRepository(db)
	friendService := services.NewFriendService(db, userRepo, storage.NewGormBookRepository(db), nil, zl)
	ctx := context.Background()

	switch os.Args[1] {
	case "show-friends":
		showFriends(ctx, db, userRepo, parseUserID(os.Args[2]))
	case "repair-friends":
		if os.Args[2] == "all" {
			repairAll(ctx, db, friendService)
		} else {
			repairOne(ctx, friendService, parseUserID(os.Args[2]))
		}
	case "pending-requests":
		pendingRequests(ctx, friendService, parseUserID(os.Args[2]))
	default:
		usage()
		log.Fatalf("unknown command: %s", os.Args[1])
	}
}

func parseUserID(raw string) uint {
	id, err := storage.StrToUint(raw)
	if err != nil {
		log.Fatalf("invalid user id %q", raw)
	}
	return id
}

// showFriends prints edges as stored, without the compaction ListFriends applies.
func showFriends(ctx context.Context, db *gorm.DB, userRepo storage.UserRepository, userID uint) {
	edgeRepo := storage.NewGormFriendEdgeRepository(db)
	edges, err := edgeRepo.ListByOwner(ctx, userID)
	if err != nil {
		log.Fatalf("failed to list edges: %v", err)
	}

	fmt.Printf("Friend edges of user %d (%d rows):\n", userID, len(edges))
	fmt.Println("--------------------------------------")
	seen := make(map[uint]bool, len(edges))
	for _, edge := range edges {
		var flags []string
		switch {
		case edge.FriendID == userID:
			flags = append(flags, "SELF")
		case seen[edge.FriendID]:
			flags = append(flags, "DUPLICATE")
		}
		seen[edge.FriendID] = true

		if edge.FriendID != userID {
			back, err := edgeRepo.Exists(ctx, edge.FriendID, userID)
			if err != nil {
				log.Fatalf("failed to check reverse edge: %v", err)
			}
			if !back {
				flags = append(flags, "ONE-SIDED")
			}
		}

		name := "<missing user>"
		if info, err := userRepo.GetBasicInfoByID(ctx, edge.FriendID); err == nil {
			name = info.Name
		}
		fmt.Printf("edge %d -> user %d (%s) added %s %v\n",
			edge.ID, edge.FriendID, name, edge.CreatedAt.Format("2006-01-02 15:04:05"), flags)
	}
}

func repairOne(ctx context.Context, friendService services.FriendService, userID uint) {
	removed, err := friendService.RepairFriendEdges(ctx, userID)
	if err != nil {
		log.Fatalf("repair failed for user %d: %v", userID, err)
	}
	fmt.Printf("user %d: repaired %d edge(s)\n", userID, removed)
}

func repairAll(ctx context.Context, db *gorm.DB, friendService services.FriendService) {
	var ownerIDs []uint
	if err := db.WithContext(ctx).Model(&models.FriendEdge{}).Distinct().Pluck("owner_id", &ownerIDs).Error; err != nil {
		log.Fatalf("failed to list edge owners: %v", err)
	}

	var total int64
	for _, ownerID := range ownerIDs {
		removed, err := friendService.RepairFriendEdges(ctx, ownerID)
		if err != nil {
			log.Printf("repair failed for user %d: %v", ownerID, err)
			continue
		}
		total += removed
	}
	fmt.Printf("checked %d user(s), repaired %d edge(s)\n", len(ownerIDs), total)
}

func pendingRequests(ctx context.Context, friendService services.FriendService, userID uint) {
	pending, err := friendService.ListPendingRequests(ctx, userID)
	if err != nil {
		log.Fatalf("failed to list pending requests: %v", err)
	}
	fmt.Printf("Pending requests for user %d (%d):\n", userID, len(pending))
	fmt.Println("--------------------------------------")
	for i, p := range pending {
		fmt.Printf("#%d request %d from %s (id %d, %s) at %s\n",
			i+1, p.RequestID, p.SenderName, p.SenderID, p.SenderEmail, p.CreatedAt.Format("2006-01-02 15:04:05"))
	}
}
