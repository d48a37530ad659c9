package guard

import "fmt"

// linear is a term flattened into per-variable coefficients plus a constant.
// Constant arithmetic folds away during flattening, so a comparison side like
// (x + 1) * 2 reduces to coefficient 2 and constant 2.
type linear struct {
	coeffs map[string]float64
	konst  float64
}

// linearize flattens t. Products of variables and division by anything that
// is not a nonzero constant fall outside the linear fragment.
func linearize(t Term) (linear, error) {
	switch v := t.(type) {
	case Num:
		return linear{konst: v.Val}, nil
	case Sym:
		return linear{coeffs: map[string]float64{v.Name: 1}}, nil
	case Arith:
		l, err := linearize(v.Left)
		if err != nil {
			return linear{}, err
		}
		r, err := linearize(v.Right)
		if err != nil {
			return linear{}, err
		}
		switch v.Op {
		case OpAdd:
			return l.plus(r, 1), nil
		case OpSub:
			return l.plus(r, -1), nil
		case OpMul:
			if len(l.coeffs) == 0 {
				return r.scaled(l.konst), nil
			}
			if len(r.coeffs) == 0 {
				return l.scaled(r.konst), nil
			}
			return linear{}, &ErrUnsupported{Detail: "product of variables: " + t.String()}
		case OpDiv:
			if len(r.coeffs) != 0 {
				return linear{}, &ErrUnsupported{Detail: "division by a variable: " + t.String()}
			}
			if r.konst == 0 {
				return linear{}, &ErrUnsupported{Detail: "division by zero: " + t.String()}
			}
			return l.scaled(1 / r.konst), nil
		default:
			return linear{}, &ErrUnsupported{Detail: "arithmetic operator " + v.Op.String()}
		}
	default:
		return linear{}, &ErrUnsupported{Detail: fmt.Sprintf("term %T", t)}
	}
}

// plus returns l + scale*r. Neither operand is mutated.
func (l linear) plus(r linear, scale float64) linear {
	out := linear{konst: l.konst + scale*r.konst}
	if len(l.coeffs) > 0 || len(r.coeffs) > 0 {
		out.coeffs = make(map[string]float64, len(l.coeffs)+len(r.coeffs))
		for name, c := range l.coeffs {
			out.coeffs[name] = c
		}
		for name, c := range r.coeffs {
			out.coeffs[name] += scale * c
		}
		out.dropZeros()
	}
	return out
}

func (l linear) scaled(f float64) linear {
	out := linear{konst: l.konst * f}
	if len(l.coeffs) > 0 {
		out.coeffs = make(map[string]float64, len(l.coeffs))
		for name, c := range l.coeffs {
			out.coeffs[name] = c * f
		}
		out.dropZeros()
	}
	return out
}

// dropZeros removes variables whose coefficients cancelled out, so that
// x - x counts as constant.
func (l linear) dropZeros() {
	for name, c := range l.coeffs {
		if c == 0 {
			delete(l.coeffs, name)
		}
	}
}
