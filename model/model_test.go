package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func strp(s string) *string { return &s }

func TestClassifyMined(t *testing.T) {
	tx := &Transaction{To: "tminedaddr"}
	tx.Classify()
	assert.Equal(t, "mined", tx.Type)
}

func TestClassifyStaking(t *testing.T) {
	tx := &Transaction{From: strp("staking"), To: "taddress1"}
	tx.Classify()
	assert.Equal(t, "staking", tx.Type)

	tx2 := &Transaction{From: strp("taddress1"), To: "staking"}
	tx2.Classify()
	assert.Equal(t, "staking", tx2.Type)
}

func TestClassifyNamePurchase(t *testing.T) {
	tx := &Transaction{From: strp("tbuyeraddr1"), To: "name", Name: strp("example")}
	tx.Classify()
	assert.Equal(t, "name_purchase", tx.Type)
}

func TestClassifyNameARecord(t *testing.T) {
	tx := &Transaction{From: strp("townersaddr"), To: "a", Name: strp("example")}
	tx.Classify()
	assert.Equal(t, "name_a_record", tx.Type)
}

func TestClassifyNameTransfer(t *testing.T) {
	tx := &Transaction{From: strp("townersaddr"), To: "trecipient", Name: strp("example")}
	tx.Classify()
	assert.Equal(t, "name_transfer", tx.Type)
}

func TestClassifyTransfer(t *testing.T) {
	tx := &Transaction{From: strp("tsenderaddr"), To: "trecipient"}
	tx.Classify()
	assert.Equal(t, "transfer", tx.Type)
}
