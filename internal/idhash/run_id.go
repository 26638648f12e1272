package idhash

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	"github.com/mr-tron/base58"

	"fixed-income-lab/internal/domain"
)

// ComputeRunID computes a deterministic run_id.
// Formula: base58(SHA256(scenario_id|instrument_id|config_fingerprint))
// Base58 keeps ids short enough for report tables.
func ComputeRunID(scenarioID, instrumentID, configFingerprint string) string {
	data := fmt.Sprintf("%s|%s|%s", scenarioID, instrumentID, configFingerprint)
	hash := sha256.Sum256([]byte(data))
	return base58.Encode(hash[:])
}

// ConfigFingerprint hashes every config field that affects projected values.
// Returns hex-encoded hash (64 characters).
func ConfigFingerprint(cfg domain.Config) string {
	var b strings.Builder
	b.WriteString(formatFloat(cfg.InitialCapital))
	b.WriteByte('|')
	b.WriteString(strconv.Itoa(cfg.HorizonYears))
	b.WriteByte('|')
	b.WriteString(strconv.Itoa(cfg.BusinessDaysPerYear))
	b.WriteByte('|')
	b.WriteString(formatFloat(cfg.CustodyAnnualRate))
	b.WriteByte('|')
	b.WriteString(formatFloat(cfg.TRMonthlyRate))
	b.WriteByte('|')
	b.WriteString(formatFloat(cfg.CDISelicSpread))
	for _, br := range cfg.TaxBrackets {
		fmt.Fprintf(&b, "|%d:%s", br.MaxDays, formatFloat(br.Rate))
	}

	hash := sha256.Sum256([]byte(b.String()))
	return hex.EncodeToString(hash[:])
}

// DecodeRunID returns the raw 32-byte digest behind a run_id.
func DecodeRunID(runID string) ([]byte, error) {
	raw, err := base58.Decode(runID)
	if err != nil {
		return nil, fmt.Errorf("decode run_id: %w", err)
	}
	if len(raw) != sha256.Size {
		return nil, fmt.Errorf("decode run_id: invalid length %d", len(raw))
	}
	return raw, nil
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}
