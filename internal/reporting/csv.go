package reporting

import (
	"fmt"
	"sort"
	"strings"

	"wallet-risk-lab/internal/domain"
)

// SortByScore returns a copy of scores ordered by score DESC, then wallet_id ASC.
func SortByScore(scores []domain.WalletScore) []domain.WalletScore {
	out := make([]domain.WalletScore, len(scores))
	copy(out, scores)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].WalletID < out[j].WalletID
	})
	return out
}

// RenderScoresCSV renders scores as a wallet_id,score CSV string, highest score first.
func RenderScoresCSV(scores []domain.WalletScore) string {
	var sb strings.Builder

	sb.WriteString("wallet_id,score\n")
	for _, s := range SortByScore(scores) {
		sb.WriteString(fmt.Sprintf("%s,%d\n", s.WalletID, s.Score))
	}

	return sb.String()
}

// RenderScoreList renders scores as an aligned console listing, highest score first.
func RenderScoreList(scores []domain.WalletScore) string {
	var sb strings.Builder

	for _, s := range SortByScore(scores) {
		sb.WriteString(fmt.Sprintf("Wallet: %-42s -> Score: %d\n", s.WalletID, s.Score))
	}

	return sb.String()
}
