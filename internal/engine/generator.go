package engine

import (
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"meme-trade-bot-go/internal/models"
)

// DefaultCoins is the candidate set trades are drawn from when the config
// does not override it.
var DefaultCoins = []string{
	"bonk", "wuffi", "mew", "popcat", "book-of-meme", "floki", "pepe",
	"dogecoin", "shiba-inu", "samoyedcoin", "raydium", "orca", "step-finance",
	"kin", "serum", "bonfida", "star-atlas", "solanadream", "helium", "maps",
	"cyclone", "gram", "dingo", "gigachad", "penguin", "duel", "dust", "soup",
	"tata", "zebec",
}

// Generator produces synthetic trade records from a pseudo-random model.
// It is not safe for concurrent use; the engine serializes access to it.
type Generator struct {
	coins []string
	rng   *rand.Rand
}

// NewGenerator creates a generator over the given candidate coins. A nil rng
// gets a time-seeded source; tests inject a fixed seed.
func NewGenerator(coins []string, rng *rand.Rand) *Generator {
	if len(coins) == 0 {
		coins = DefaultCoins
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Generator{coins: coins, rng: rng}
}

// SimulatedPrice draws a price uniformly from (0.001, 10.000], rounded to
// 4 decimal places. It stands in for a live price feed everywhere one would
// be consulted.
func (g *Generator) SimulatedPrice() float64 {
	return round4(g.rng.Float64()*9.999 + 0.001)
}

// Generate fabricates one closed trade: random coin, random entry, exit
// perturbed by up to ±10% of entry, random size, P&L derived from the three.
// Rounding is cosmetic (prices 4 decimals, money/percent 2) and applied
// before the derived fields are computed so displayed numbers stay coherent.
func (g *Generator) Generate() models.Trade {
	coin := g.coins[g.rng.Intn(len(g.coins))]
	entry := g.SimulatedPrice()
	exit := round4(entry * (1 + (g.rng.Float64()-0.5)*0.2))
	amount := round2(g.rng.Float64() * 1000)

	return models.Trade{
		ID:            uuid.NewString(),
		Coin:          coin,
		EntryPrice:    entry,
		ExitPrice:     exit,
		Amount:        amount,
		PnlUSD:        round2((exit - entry) * amount),
		PnlPercentage: round2((exit - entry) / entry * 100),
		Timestamp:     time.Now().UTC().Format(models.TimestampLayout),
	}
}

// amount draws a position size in [0, 1000), rounded to 2 decimals.
func (g *Generator) amount() float64 {
	return round2(g.rng.Float64() * 1000)
}

func round2(v float64) float64 {
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}

func round4(v float64) float64 {
	return decimal.NewFromFloat(v).Round(4).InexactFloat64()
}
