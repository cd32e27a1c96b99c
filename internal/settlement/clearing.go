// Package settlement simulates the clearing and settlement process
// downstream of the core's own fills — not named in spec.md, not
// excluded by it either (§1's Non-goals stop at "no in-flight order
// recovery across restarts"); kept as a realistic consumer of the fill
// stream.
//
// Trade lifecycle:
//
// T+0 (Trade Date): a fill is reported by the trade engine's FILL
// handling (internal/engine) and recorded here against the originating
// ClientId and a
// fixed venue counterparty account (this core trades against one venue
// at a time per ticker; it does not itself match two client orders
// against each other — that happens at the venue).
//
// T+1: netting reduces the day's fills to net positions per account/
// ticker and produces settlement instructions.
//
// T+2: Delivery-vs-Payment — shares and cash move atomically, or the
// instruction fails outright (no partial settlement).
//
// Grounded on the teacher's internal/settlement/clearing.go: the same
// Account{Cash, Holdings}/Trade/NetPosition/SettlementInstruction shape
// and the same netting-then-settle two-phase process, retargeted from
// string Symbol/AccountID keys onto types.TickerId/types.ClientId and
// fed by this core's own OnFill events instead of a two-sided matching
// engine's Fill record.
package settlement

import (
	"fmt"
	"sync"
	"time"

	"github.com/rishav/hft-trade-core/internal/types"
)

// venueAccount is the fixed counterparty every core-originated fill
// settles against: this core trades against one venue at a time, it
// never matches two of its own clients against each other.
const venueAccount = "VENUE"

// TradeStatus is the settlement status of a recorded trade.
type TradeStatus int

const (
	TradeStatusExecuted TradeStatus = iota
	TradeStatusReadyToSettle
	TradeStatusSettled
	TradeStatusFailed
)

func (s TradeStatus) String() string {
	switch s {
	case TradeStatusExecuted:
		return "EXECUTED"
	case TradeStatusReadyToSettle:
		return "READY_TO_SETTLE"
	case TradeStatusSettled:
		return "SETTLED"
	case TradeStatusFailed:
		return "FAILED"
	default:
		return "UNKNOWN"
	}
}

// Trade is a single recorded fill pending settlement.
type Trade struct {
	ID            uint64
	Ticker        types.TickerId
	Price         types.Price
	Qty           types.Qty
	BuyerAccount  string
	SellerAccount string
	TradeTime     time.Time
	SettleDate    time.Time
	Status        TradeStatus
}

// NetPosition is a netted position for one account/ticker pair.
type NetPosition struct {
	Account string
	Ticker  types.TickerId
	NetQty  int64 // +long (receives delivery), -short (owes delivery)
	NetValue int64
}

// Instruction is what must happen at settlement for a netted pair.
type Instruction struct {
	TradeIDs    []uint64
	FromAccount string
	ToAccount   string
	Ticker      types.TickerId
	Qty         int64
	CashAmount  int64
	SettleDate  time.Time
	Status      TradeStatus
}

// Account holds one party's cash and per-ticker holdings.
type Account struct {
	ID       string
	Cash     int64
	Holdings map[types.TickerId]int64
}

// ClearingHouse tracks trades, accounts, and pending settlement
// instructions. Safe for concurrent use. When wired in, the trade engine
// calls RecordFill directly from its FILL handling, on the engine's own
// goroutine; netting and settlement are driven by other callers.
type ClearingHouse struct {
	mu             sync.RWMutex
	trades         map[uint64]*Trade
	accounts       map[string]*Account
	instructions   []Instruction
	settlementDays int
	nextTradeID    uint64
}

// NewClearingHouse constructs a ClearingHouse with T+2 settlement.
func NewClearingHouse() *ClearingHouse {
	return &ClearingHouse{
		trades:         make(map[uint64]*Trade),
		accounts:       make(map[string]*Account),
		settlementDays: 2,
	}
}

func (ch *ClearingHouse) getOrCreateAccountLocked(id string) *Account {
	if acct, ok := ch.accounts[id]; ok {
		return acct
	}
	acct := &Account{ID: id, Holdings: make(map[types.TickerId]int64)}
	ch.accounts[id] = acct
	return acct
}

// GetOrCreateAccount returns a client's account, seeding it with
// initialCash the first time it is seen.
func (ch *ClearingHouse) GetOrCreateAccount(clientId types.ClientId, initialCash int64) *Account {
	ch.mu.Lock()
	defer ch.mu.Unlock()
	id := accountID(clientId)
	acct := ch.getOrCreateAccountLocked(id)
	if acct.Cash == 0 {
		acct.Cash = initialCash
	}
	return acct
}

func accountID(clientId types.ClientId) string {
	return fmt.Sprintf("client-%d", clientId)
}

// RecordFill records one of the core's own fills for later netting and
// settlement, with the venue as the implicit counterparty.
func (ch *ClearingHouse) RecordFill(clientId types.ClientId, ticker types.TickerId, side types.Side, qty types.Qty, price types.Price, ts types.Timestamp) *Trade {
	ch.mu.Lock()
	defer ch.mu.Unlock()

	ch.nextTradeID++
	now := time.Unix(0, int64(ts))
	settleDate := ch.calculateSettleDate(now)

	client := accountID(clientId)
	buyer, seller := client, venueAccount
	if side == types.SideSell {
		buyer, seller = venueAccount, client
	}

	trade := &Trade{
		ID:            ch.nextTradeID,
		Ticker:        ticker,
		Price:         price,
		Qty:           qty,
		BuyerAccount:  buyer,
		SellerAccount: seller,
		TradeTime:     now,
		SettleDate:    settleDate,
		Status:        TradeStatusExecuted,
	}
	ch.trades[trade.ID] = trade

	ch.getOrCreateAccountLocked(client)
	ch.getOrCreateAccountLocked(venueAccount)

	return trade
}

func (ch *ClearingHouse) calculateSettleDate(tradeDate time.Time) time.Time {
	settleDate := tradeDate
	daysAdded := 0
	for daysAdded < ch.settlementDays {
		settleDate = settleDate.AddDate(0, 0, 1)
		if settleDate.Weekday() != time.Saturday && settleDate.Weekday() != time.Sunday {
			daysAdded++
		}
	}
	return settleDate
}

// CalculateNetting nets every pending trade down to one NetPosition per
// account/ticker pair.
func (ch *ClearingHouse) CalculateNetting() map[string]map[types.TickerId]NetPosition {
	ch.mu.RLock()
	defer ch.mu.RUnlock()
	return ch.calculateNettingLocked()
}

func (ch *ClearingHouse) calculateNettingLocked() map[string]map[types.TickerId]NetPosition {
	nets := make(map[string]map[types.TickerId]NetPosition)

	for _, trade := range ch.trades {
		if trade.Status != TradeStatusExecuted {
			continue
		}
		value := int64(trade.Price) * int64(trade.Qty)

		buyer := nets[trade.BuyerAccount]
		if buyer == nil {
			buyer = make(map[types.TickerId]NetPosition)
			nets[trade.BuyerAccount] = buyer
		}
		bp := buyer[trade.Ticker]
		bp.Account, bp.Ticker = trade.BuyerAccount, trade.Ticker
		bp.NetQty += int64(trade.Qty)
		bp.NetValue += value
		buyer[trade.Ticker] = bp

		seller := nets[trade.SellerAccount]
		if seller == nil {
			seller = make(map[types.TickerId]NetPosition)
			nets[trade.SellerAccount] = seller
		}
		sp := seller[trade.Ticker]
		sp.Account, sp.Ticker = trade.SellerAccount, trade.Ticker
		sp.NetQty -= int64(trade.Qty)
		sp.NetValue -= value
		seller[trade.Ticker] = sp
	}
	return nets
}

// GenerateInstructions nets pending trades and produces delivery
// instructions between the matched long/short sides per ticker.
func (ch *ClearingHouse) GenerateInstructions() []Instruction {
	ch.mu.Lock()
	defer ch.mu.Unlock()

	nets := ch.calculateNettingLocked()
	byTicker := make(map[types.TickerId][]NetPosition)
	for _, positions := range nets {
		for _, pos := range positions {
			byTicker[pos.Ticker] = append(byTicker[pos.Ticker], pos)
		}
	}

	var instructions []Instruction
	for ticker, positions := range byTicker {
		var receivers, deliverers []NetPosition
		for _, pos := range positions {
			switch {
			case pos.NetQty > 0:
				receivers = append(receivers, pos)
			case pos.NetQty < 0:
				deliverers = append(deliverers, pos)
			}
		}

		for _, deliverer := range deliverers {
			remaining := -deliverer.NetQty
			if deliverer.NetQty == 0 {
				continue
			}
			avgPrice := deliverer.NetValue / deliverer.NetQty

			for i := range receivers {
				if remaining <= 0 {
					break
				}
				if receivers[i].NetQty <= 0 {
					continue
				}
				matchQty := min64(remaining, receivers[i].NetQty)
				cash := matchQty * avgPrice

				instructions = append(instructions, Instruction{
					FromAccount: deliverer.Account,
					ToAccount:   receivers[i].Account,
					Ticker:      ticker,
					Qty:         matchQty,
					CashAmount:  cash,
					SettleDate:  time.Now().AddDate(0, 0, ch.settlementDays),
					Status:      TradeStatusReadyToSettle,
				})

				remaining -= matchQty
				receivers[i].NetQty -= matchQty
			}
		}
	}

	ch.instructions = instructions
	return instructions
}

// Settle executes DVP for every ready instruction, atomically moving
// shares and cash. An instruction fails outright on insufficient
// shares/cash; there is no partial settlement.
func (ch *ClearingHouse) Settle() ([]Instruction, error) {
	ch.mu.Lock()
	defer ch.mu.Unlock()

	var settled []Instruction
	var errs []string

	for i := range ch.instructions {
		instr := &ch.instructions[i]
		if instr.Status != TradeStatusReadyToSettle {
			continue
		}

		from := ch.accounts[instr.FromAccount]
		to := ch.accounts[instr.ToAccount]
		if from == nil || to == nil {
			instr.Status = TradeStatusFailed
			errs = append(errs, fmt.Sprintf("account not found for %s->%s", instr.FromAccount, instr.ToAccount))
			continue
		}
		if from.Holdings[instr.Ticker] < instr.Qty {
			instr.Status = TradeStatusFailed
			errs = append(errs, fmt.Sprintf("insufficient holdings: %s has %d, needs %d", instr.FromAccount, from.Holdings[instr.Ticker], instr.Qty))
			continue
		}
		if to.Cash < instr.CashAmount {
			instr.Status = TradeStatusFailed
			errs = append(errs, fmt.Sprintf("insufficient cash: %s has %d, needs %d", instr.ToAccount, to.Cash, instr.CashAmount))
			continue
		}

		from.Holdings[instr.Ticker] -= instr.Qty
		to.Holdings[instr.Ticker] += instr.Qty
		to.Cash -= instr.CashAmount
		from.Cash += instr.CashAmount

		instr.Status = TradeStatusSettled
		settled = append(settled, *instr)
	}

	if len(errs) == 0 {
		for _, trade := range ch.trades {
			if trade.Status == TradeStatusExecuted {
				trade.Status = TradeStatusSettled
			}
		}
	}

	if len(errs) > 0 {
		return settled, fmt.Errorf("settlement errors: %v", errs)
	}
	return settled, nil
}

// PendingTrades returns every trade not yet settled or failed.
func (ch *ClearingHouse) PendingTrades() []*Trade {
	ch.mu.RLock()
	defer ch.mu.RUnlock()

	var pending []*Trade
	for _, trade := range ch.trades {
		if trade.Status != TradeStatusSettled && trade.Status != TradeStatusFailed {
			pending = append(pending, trade)
		}
	}
	return pending
}

func min64(a, b int64) int64 {
	if a < b {
		return a
	}
	return b
}
