package main

import (
	"fmt"
	"log"
	"os"

	"github.com/ikkim/foodgram-backend/config"
	"github.com/ikkim/foodgram-backend/internal/app/repository"
	"github.com/ikkim/foodgram-backend/internal/app/service"
	"github.com/ikkim/foodgram-backend/internal/db"
	"github.com/ikkim/foodgram-backend/pkg/logger"
)

func main() {
	if len(os.Args) < 2 {
		log.Fatal("Usage: go run ./cmd/seed <ingredients.xlsx|ingredients.csv> [-y]")
	}

	filePath := os.Args[1]
	assumeYes := len(os.Args) > 2 && os.Args[2] == "-y"

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}
	logger.Initialize(logger.Config{Level: "info", Format: "console", EnableColor: true})

	fmt.Printf("Reading ingredients from %s\n", filePath)
	items, err := readIngredients(filePath)
	if err != nil {
		log.Fatal("Failed to read ingredients:", err)
	}
	fmt.Printf("Rows read: %d\n", len(items))

	if !assumeYes {
		fmt.Print("Do you want to proceed with the import? (yes/no): ")
		var confirm string
		fmt.Scanln(&confirm)
		if confirm != "yes" && confirm != "y" {
			fmt.Println("Import cancelled.")
			return
		}
	}

	if err := db.Initialize(&cfg.Database); err != nil {
		log.Fatal("Failed to connect to database:", err)
	}
	defer db.Close()

	if err := db.Migrate(); err != nil {
		log.Fatal("Failed to run migrations:", err)
	}

	ingredientService := service.NewIngredientService(repository.NewIngredientRepository(db.GetDB()))
	inserted, err := ingredientService.Import(items)
	if err != nil {
		log.Fatal("Failed to import ingredients:", err)
	}

	fmt.Println("Import completed successfully!")
	fmt.Printf("New ingredients: %d, skipped: %d\n", inserted, int64(len(items))-inserted)
}
