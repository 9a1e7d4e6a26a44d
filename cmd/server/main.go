package main

import (
	"log"

	"inventorycam/internal/app"
)

func main() {
	application, err := app.NewApp()
	if err != nil {
		log.Fatalf("Failed to initialize application: %v", err)
	}

	if err := application.Run(); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

//TODO:
/*
--Rozpoznawanie tego samego przedmiotu na kolejnych zdjeciach (teraz kazde zdjecie dodaje sztuki)
*/
