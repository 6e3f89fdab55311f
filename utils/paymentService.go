package utils

import (
	"fmt"
	"log"

	"lms/config"
	"lms/database"
	"lms/models"

	"github.com/go-resty/resty/v2"
)

type bankTransfer struct {
	VariableSymbol string  `json:"variable_symbol"`
	Amount         float64 `json:"amount"`
}

type bankTransferList struct {
	Transfers []bankTransfer `json:"transfers"`
}

// VerifyBankPayments polls the bank transfer API and records incoming
// payments on the matching subscription records. The variable symbol of a
// transfer is the RunUser id. Payments are only ever increased.
func VerifyBankPayments() {
	if config.AppConfig.BankApiURL == "" {
		return
	}

	client := resty.New()
	result := &bankTransferList{}

	resp, err := client.R().
		SetHeader("Authorization", "Bearer "+config.AppConfig.BankApiKey).
		SetResult(result).
		Get(config.AppConfig.BankApiURL + "/transfers")
	if err != nil {
		log.Printf("[PAYMENTS] Error fetching bank transfers: %v", err)
		return
	}
	if resp.StatusCode() != 200 {
		log.Printf("[PAYMENTS] Bank API returned status %d", resp.StatusCode())
		return
	}

	db := database.Database.Db
	for _, transfer := range result.Transfers {
		var runUser models.RunUser
		if err := db.First(&runUser, "id = ?", transfer.VariableSymbol).Error; err != nil {
			log.Printf("[PAYMENTS] No subscription for variable symbol %s", transfer.VariableSymbol)
			continue
		}
		if transfer.Amount <= 0 {
			continue
		}

		runUser.Payment += transfer.Amount
		if err := db.Save(&runUser).Error; err != nil {
			log.Printf("[PAYMENTS] Error recording payment: %v", err)
			continue
		}
		log.Printf("[PAYMENTS] Recorded payment of %s for subscription %d",
			fmt.Sprintf("%.2f", transfer.Amount), runUser.ID)
	}
}
