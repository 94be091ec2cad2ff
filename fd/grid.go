package fd

import "gonum.org/v1/gonum/floats"

// Grid owns the node vectors and value surface for one engine. Buffers are
// allocated once at engine construction and refilled on every valuation.
type Grid struct {
	// Prices holds the ascending asset-price nodes, length priceSteps+1.
	Prices []float64
	// Times holds the ascending time nodes in years from the valuation date,
	// from 0 to the time to expiry, length timeSteps+1.
	Times []float64
	// Values[i][j] is the solution at Times[i], Prices[j]. Row timeSteps is
	// the terminal condition, row 0 the valuation-date result.
	Values [][]float64
}

func newGrid(priceSteps, timeSteps int) *Grid {
	g := &Grid{
		Prices: make([]float64, priceSteps+1),
		Times:  make([]float64, timeSteps+1),
		Values: make([][]float64, timeSteps+1),
	}
	backing := make([]float64, (timeSteps+1)*(priceSteps+1))
	for i := range g.Values {
		g.Values[i] = backing[i*(priceSteps+1) : (i+1)*(priceSteps+1)]
	}
	return g
}

// reset lays out the node vectors for a new valuation. Values are left as-is:
// the terminal/boundary hooks and the backward sweep overwrite every cell.
func (g *Grid) reset(minPrice, maxPrice, timeToExpiry float64) {
	floats.Span(g.Prices, minPrice, maxPrice)
	floats.Span(g.Times, 0, timeToExpiry)
}

// PriceSteps returns the number of price intervals N.
func (g *Grid) PriceSteps() int { return len(g.Prices) - 1 }

// TimeSteps returns the number of time intervals M.
func (g *Grid) TimeSteps() int { return len(g.Times) - 1 }

// PriceStep returns the uniform price spacing ds.
func (g *Grid) PriceStep() float64 { return (g.Prices[g.PriceSteps()] - g.Prices[0]) / float64(g.PriceSteps()) }

// TimeStep returns the uniform time spacing dt.
func (g *Grid) TimeStep() float64 { return g.Times[g.TimeSteps()] / float64(g.TimeSteps()) }

// TimeToExpiry returns the final time node.
func (g *Grid) TimeToExpiry() float64 { return g.Times[g.TimeSteps()] }
