package pdf

import (
	"strings"
)

// coreFontFallbacks spells out the math symbols missing from cp1252,
// the only encoding of the core PDF fonts.
var coreFontFallbacks = strings.NewReplacer(
	"α", "alpha", "β", "beta", "γ", "gamma", "δ", "delta", "ε", "epsilon", "θ", "theta",
	"λ", "lambda", "μ", "µ", "π", "pi", "ρ", "rho", "σ", "sigma", "τ", "tau", "φ", "phi",
	"ω", "omega", "Δ", "Delta", "Σ", "Sigma", "Ω", "Omega", "Π", "Pi", "Θ", "Theta",
	"√", "sqrt", "∛", "cbrt", "∞", "infinity", "∑", "sum", "∏", "prod", "∫", "integral",
	"∂", "d", "∇", "nabla", "≤", "<=", "≥", ">=", "≠", "!=", "≈", "~", "≡", "===",
	"∼", "~", "∝", "prop. to", "∈", " in ", "→", "->", "←", "<-", "⇒", "=>", "⇔", "<=>",
	"↔", "<->", "⇌", "<=>", "⟶", "->", "−", "-", "∓", "-/+", "∘", "o", "∠", "angle ",
	"△", "triangle ", "⊥", " perp. ", "∥", "||", "∴", "therefore", "∵", "because",
	"⁰", "^0", "⁴", "^4", "⁵", "^5", "⁶", "^6", "⁷", "^7", "⁸", "^8", "⁹", "^9",
	"⁺", "^+", "⁻", "^-", "ⁿ", "^n", "ˣ", "^x", "₀", "_0", "₁", "_1", "₂", "_2", "₃", "_3",
	"₄", "_4", "₅", "_5", "₆", "_6", "₇", "_7", "₈", "_8", "₉", "_9", "ᵢ", "_i", "ₙ", "_n",
	"\u20d7", "", "\u0305", "", "\u0302", "", "\u0307", "", "\u0308", "", "\u0303", "",
)
