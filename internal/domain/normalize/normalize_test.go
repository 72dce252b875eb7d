package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// =============================================================================
// Header normalization: case, separators, Arabic folding, idempotency
// =============================================================================

func TestHeader_SeparatorAndCaseInsensitive(t *testing.T) {
	want := "payment_date"
	assert.Equal(t, want, Header("Payment_Date"))
	assert.Equal(t, want, Header("payment-date"))
	assert.Equal(t, want, Header("PAYMENT DATE"))
	assert.Equal(t, want, Header("  payment \t--  date  "))
}

func TestHeader_StripsPunctuation(t *testing.T) {
	assert.Equal(t, "amount_qar", Header(" Amount (QAR) "))
	assert.Equal(t, "refno", Header("Ref.No"))
	assert.Equal(t, "a_b", Header("a _(_ b"))
	assert.Equal(t, "a", Header("__a__"))
}

func TestHeader_Empty(t *testing.T) {
	assert.Equal(t, "", Header(""))
	assert.Equal(t, "", Header("   "))
	assert.Equal(t, "", Header("---"))
	assert.Equal(t, "", Header("(*)"))
}

func TestHeader_ArabicFolding(t *testing.T) {
	// Hamza forms, taa marbuta and yaa fold to one spelling.
	assert.Equal(t, Header("رقم الاتفاقيه"), Header("رقم الإتفاقية"))
	assert.Equal(t, "رقم_الاتفاقىه", Header("رقم الإتفاقية"))
	assert.Equal(t, Header("اجمالي"), Header("إجمالى"))
	assert.Equal(t, Header("آخر"), Header("اخر"))
}

func TestHeader_StripsHarakatAndTatweel(t *testing.T) {
	assert.Equal(t, Header("تاريخ"), Header("تَارِيخ"))
	assert.Equal(t, Header("مبلغ"), Header("مبـــلغ"))
}

func TestHeader_KeepsDigits(t *testing.T) {
	assert.Equal(t, "phone_2", Header("Phone 2"))
	assert.Equal(t, "هاتف_٢", Header("هاتف ٢"))
}

func TestHeader_Idempotent(t *testing.T) {
	inputs := []string{
		"Payment_Date",
		" Amount (QAR) ",
		"رقم الإتفاقية",
		"تَارِيخ  الدفعة",
		"Client-Full  Name",
		"a _(_ b",
		"ＡＭＯＵＮＴ",
		"ﻻ",
		"",
	}
	for _, in := range inputs {
		once := Header(in)
		assert.Equal(t, once, Header(once), "not idempotent for %q", in)
	}
}

func TestTokens_DropsShortTokens(t *testing.T) {
	assert.Equal(t, []string{"client", "full", "name"}, Tokens("client_full_name", 3))
	assert.Equal(t, []string{"contract"}, Tokens("contract_no", 3))
	assert.Empty(t, Tokens("", 3))
	assert.Empty(t, Tokens("id_no", 3))
	// Rune length, not byte length.
	assert.Equal(t, []string{"رقم"}, Tokens("رقم", 3))
}
