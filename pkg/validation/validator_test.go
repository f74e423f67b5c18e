// Copyright 2026 © The Kairos Authors
// SPDX-License-Identifier: Apache-2.0

package validation

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jllopis/bmpp/pkg/diag"
	"github.com/jllopis/bmpp/pkg/parser"
)

func validate(t *testing.T, src string) *diag.Report {
	t.Helper()
	model, diags, err := parser.ParseAndLink(src)
	require.NoError(t, err)
	report, err := Validate(context.Background(), model, diags, Options{})
	require.NoError(t, err)
	return report
}

func kinds(ds []diag.Diagnostic) []string {
	out := make([]string, 0, len(ds))
	for _, d := range ds {
		out = append(out, d.Kind)
	}
	return out
}

const purchaseSrc = `Purchase <Protocol>("buyer purchases an item") {
    roles
        Buyer <Agent>("wants the item"),
        Seller <Agent>("sells the item"),
        Shipper <Agent>("moves the item")
    parameters
        ID <String>("order key"),
        item <String>("item name"),
        price <Float>("quoted price"),
        address <String>("delivery address"),
        shipped <Bool>("shipping flag"),
        accept <Bool>("acceptance"),
        reject <Bool>("rejection"),
        outcome <String>("final outcome")
    Buyer -> Seller: rfq <Action>("request for quote")[out ID, out item]
    Seller -> Buyer: quote <Action>("quote")[in ID, in item, out price]
    Buyer -> Seller: accept <Action>("accept")[in ID, in item, in price, out address, out accept]
    Buyer -> Seller: reject <Action>("reject")[in ID, in item, in price, out outcome, out reject]
    Seller -> Shipper: ship <Action>("ship")[in ID, in item, in address, out shipped]
    Shipper -> Buyer: deliver <Action>("deliver")[in ID, in item, in address, out outcome]
}`

func TestValidatePurchaseHasNoErrors(t *testing.T) {
	report := validate(t, purchaseSrc)

	assert.Empty(t, report.Errors)
	assert.Equal(t, []string{"Purchase"}, report.Accepted)

	var unused []string
	for _, d := range report.ByCode(diag.CodeUnusedParameter) {
		unused = append(unused, d.Parameter)
	}
	assert.Equal(t, []string{"shipped", "accept", "reject", "outcome"}, unused)
	assert.Empty(t, report.ByCode(diag.CodeUnreachableInteraction))

	inferred := report.ByCode(diag.CodeInferredChoice)
	require.Len(t, inferred, 1)
	assert.Equal(t, "outcome", inferred[0].Parameter)
	assert.Contains(t, inferred[0].Message, "reject and deliver")
	assert.Contains(t, inferred[0].Message, "choice reject | accept")
}

func TestSafetyMultipleProducers(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{
			name: "different roles",
			src: `P <Protocol>("p") {
                roles A <Agent>("a"), B <Agent>("b")
                parameters ID <String>("id"), x <Int>("x")
                A -> B: first <Action>("first")[out ID]
                B -> A: second <Action>("second")[out ID, out x]
                A -> B: use <Action>("use")[in ID, in x]
            }`,
		},
		{
			name: "same choice point",
			src: `P <Protocol>("p") {
                roles A <Agent>("a"), B <Agent>("b")
                parameters ID <String>("id")
                A -> B: first <Action>("first")[out ID]
                A -> B: second <Action>("second")[out ID]
                B -> A: third <Action>("third")[out ID]
            }`,
		},
		{
			name: "sequential producers",
			src: `P <Protocol>("p") {
                roles A <Agent>("a"), B <Agent>("b")
                parameters ID <String>("id"), x <Int>("x")
                A -> B: first <Action>("first")[out ID, out x]
                B -> A: second <Action>("second")[in x, out ID]
            }`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			report := validate(t, tt.src)
			violations := report.ByCode(diag.CodeSafetyViolation)
			require.Len(t, violations, 1)
			assert.Equal(t, "ID", violations[0].Parameter)
			assert.Empty(t, report.Accepted)
		})
	}
}

func TestSafetyAllowsProducersOnExclusiveBranches(t *testing.T) {
	report := validate(t, `Decide <Protocol>("d") {
        roles A <Agent>("a"), B <Agent>("b")
        parameters req <String>("r"), yes <Bool>("y"), no <Bool>("n"), result <String>("res")
        A -> B: ask <Action>("ask")[out req]
        B -> A: approve <Action>("approve")[in req, out yes]
        B -> A: deny <Action>("deny")[in req, out no, out result]
        A -> B: close <Action>("close")[in req, in yes, out result]
    }`)
	assert.Empty(t, report.ByCode(diag.CodeSafetyViolation))
	assert.Empty(t, report.Errors)

	inferred := report.ByCode(diag.CodeInferredChoice)
	require.Len(t, inferred, 1)
	assert.Equal(t, "result", inferred[0].Parameter)
	assert.Equal(t, []string{"deny", "close"}, inferred[0].Nodes)
	assert.Contains(t, inferred[0].Message, "choice deny | approve")
}

func TestSafetyWarnsOnInferredChoice(t *testing.T) {
	report := validate(t, `Split <Protocol>("split") {
        roles A <Agent>("a"), B <Agent>("b")
        parameters k <String>("k"), x <Int>("x"), y <Int>("y"), z <Int>("z")
        A -> B: start <Action>("start")[out k]
        B -> A: pickX <Action>("pick x")[in k, out x]
        B -> A: pickY <Action>("pick y")[in k, out y]
        A -> B: finishX <Action>("finish x")[in x, out z]
        A -> B: finishY <Action>("finish y")[in y, out z]
    }`)

	assert.Empty(t, report.Errors)
	assert.Equal(t, []string{"Split"}, report.Accepted)

	inferred := report.ByCode(diag.CodeInferredChoice)
	require.Len(t, inferred, 1)
	w := inferred[0]
	assert.Equal(t, diag.SeverityWarning, w.Code.Severity())
	assert.Equal(t, "z", w.Parameter)
	assert.Equal(t, []string{"finishX", "finishY"}, w.Nodes)
	assert.Equal(t, `parameter "z" is produced by finishX and finishY; treated as exclusive through the choice pickX | pickY`, w.Message)
}

func TestCausalityCycleNamesBothActions(t *testing.T) {
	report := validate(t, `Loop <Protocol>("loop") {
        roles A <Agent>("a"), B <Agent>("b")
        parameters x <Int>("x"), y <Int>("y")
        A -> B: first <Action>("first")[in y, out x]
        B -> A: second <Action>("second")[in x, out y]
    }`)

	cycles := report.ByCode(diag.CodeCausalityViolation)
	require.Len(t, cycles, 1)
	assert.Equal(t, []string{"first", "second", "first"}, cycles[0].Cycle)
	assert.Contains(t, cycles[0].Message, "first -> second -> first")
	assert.Empty(t, report.ByCode(diag.CodeEnactabilityViolation), "enactability is skipped on a cycle")
	assert.Len(t, report.ByCode(diag.CodeUnreachableInteraction), 2)
}

func TestCompletenessViolation(t *testing.T) {
	report := validate(t, `P <Protocol>("p") {
        roles A <Agent>("a"), B <Agent>("b")
        parameters key <String>("k"), v <Int>("v")
        A -> B: use <Action>("use")[in key, out v]
        B -> A: back <Action>("back")[in v]
    }`)

	violations := report.ByCode(diag.CodeCompletenessViolation)
	require.Len(t, violations, 1)
	assert.Equal(t, "key", violations[0].Parameter)
	assert.Equal(t, []string{"use"}, violations[0].Nodes)

	enact := report.ByCode(diag.CodeEnactabilityViolation)
	require.Len(t, enact, 1, "the consumer of v is not reported again")
	assert.Equal(t, "A", enact[0].Role)
	assert.Equal(t, "key", enact[0].Parameter)
	assert.Equal(t, "use", enact[0].Node)
	assert.Len(t, report.ByCode(diag.CodeUnreachableInteraction), 2)
}

func TestUnusedParameterDoesNotBlockGeneration(t *testing.T) {
	report := validate(t, `P <Protocol>("p") {
        roles A <Agent>("a"), B <Agent>("b")
        parameters x <Int>("x"), spare <Bool>("never used")
        A -> B: send <Action>("send")[out x]
        B -> A: ack <Action>("ack")[in x]
    }`)

	assert.Empty(t, report.Errors)
	warnings := report.ByCode(diag.CodeUnusedParameter)
	require.Len(t, warnings, 1)
	assert.Equal(t, "spare", warnings[0].Parameter)
	assert.Contains(t, warnings[0].Message, "never referenced")
	assert.Equal(t, []string{"P"}, report.Accepted)
}

func TestLinkErrorSuppressesProtocol(t *testing.T) {
	report := validate(t, `P <Protocol>("p") {
        roles A <Agent>("a"), B <Agent>("b")
        parameters x <Int>("x")
        A -> Nobody: send <Action>("send")[out x]
    }
    Q <Protocol>("q") {
        roles A <Agent>("a"), B <Agent>("b")
        parameters x <Int>("x")
        A -> B: send <Action>("send")[out x]
    }`)

	require.Len(t, report.Errors, 1)
	assert.Equal(t, diag.CodeLinkError, report.Errors[0].Code)
	assert.Equal(t, "P", report.Errors[0].Protocol)
	assert.Equal(t, []string{"Q"}, report.Accepted)
	assert.Equal(t, []string{"P", "Q"}, report.Order)
}

func TestEnactability(t *testing.T) {
	t.Run("receiver learns inputs too", func(t *testing.T) {
		report := validate(t, `P <Protocol>("p") {
            roles A <Agent>("a"), B <Agent>("b"), C <Agent>("c")
            parameters x <Int>("x"), y <Int>("y")
            B -> C: relay <Action>("relay")[in x, out y]
            A -> B: tell <Action>("tell")[out x]
            C -> A: use <Action>("use")[in x, in y]
        }`)
		assert.Empty(t, report.Errors)
	})

	t.Run("role never learns the parameter", func(t *testing.T) {
		report := validate(t, `P <Protocol>("p") {
            roles A <Agent>("a"), B <Agent>("b"), C <Agent>("c")
            parameters x <Int>("x"), y <Int>("y")
            A -> B: tell <Action>("tell")[out x]
            C -> B: guess <Action>("guess")[in x, out y]
            C -> A: follow <Action>("follow")[in y]
        }`)
		violations := report.ByCode(diag.CodeEnactabilityViolation)
		require.Len(t, violations, 1)
		assert.Equal(t, "C", violations[0].Role)
		assert.Equal(t, "x", violations[0].Parameter)
		assert.Equal(t, "guess", violations[0].Node)
		assert.Empty(t, report.Accepted)
	})

	t.Run("self reference is satisfied and flagged", func(t *testing.T) {
		report := validate(t, `P <Protocol>("p") {
            roles A <Agent>("a"), B <Agent>("b")
            parameters x <Int>("x")
            A -> B: echo <Action>("echo")[in x, out x]
        }`)
		assert.Empty(t, report.Errors)
		require.Len(t, report.ByCode(diag.CodeSelfReference), 1)
	})
}

const compositionSrc = `Outer <Protocol>("outer") {
    roles A <Agent>("a"), B <Agent>("b"), C <Agent>("c")
    parameters input <String>("i"), output <String>("o")
    A -> B: start <Action>("start")[out input]
    Inner <Enactment>(B, C, in input, out output)
    C -> A: finish <Action>("finish")[in output]
}
Inner <Protocol>("inner") {
    roles X <Agent>("x"), Y <Agent>("y")
    parameters input <String>("i"), output <String>("o")
    X -> Y: work <Action>("work")[in input, out output]
}`

func TestCompositionValid(t *testing.T) {
	report := validate(t, compositionSrc)
	assert.Empty(t, report.Errors)
	assert.Empty(t, report.Warnings)
	assert.Equal(t, []string{"Inner", "Outer"}, report.Order)
	assert.Equal(t, []string{"Inner", "Outer"}, report.Accepted)
}

func TestCompositionErrors(t *testing.T) {
	tests := []struct {
		name      string
		enactment string
		want      []string
	}{
		{
			name:      "arity",
			enactment: "Inner <Enactment>(B, in input, out output)",
			want:      []string{string(diag.ArityMismatch)},
		},
		{
			name:      "directions swapped",
			enactment: "Inner <Enactment>(B, C, out input, in output)",
			want: []string{
				string(diag.DirectionMismatch),
				string(diag.DirectionMismatch),
				string(diag.UnmappedInput),
			},
		},
		{
			name:      "input not supplied",
			enactment: "Inner <Enactment>(B, C, out output)",
			want:      []string{string(diag.UnmappedInput)},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := `Outer <Protocol>("outer") {
                roles A <Agent>("a"), B <Agent>("b"), C <Agent>("c")
                parameters input <String>("i"), output <String>("o")
                A -> B: start <Action>("start")[out input]
                ` + tt.enactment + `
                C -> A: finish <Action>("finish")[in output]
            }
            Inner <Protocol>("inner") {
                roles X <Agent>("x"), Y <Agent>("y")
                parameters input <String>("i"), output <String>("o")
                X -> Y: work <Action>("work")[in input, out output]
            }`
			report := validate(t, src)
			errs := report.ByCode(diag.CodeCompositionError)
			assert.ElementsMatch(t, tt.want, kinds(errs))
			assert.Equal(t, []string{"Inner"}, report.Accepted)
		})
	}
}

func TestCompositionTypeMismatch(t *testing.T) {
	report := validate(t, `Outer <Protocol>("outer") {
        roles A <Agent>("a"), B <Agent>("b")
        parameters input <Int>("i")
        A -> B: start <Action>("start")[out input]
        Inner <Enactment>(A, B, in input)
    }
    Inner <Protocol>("inner") {
        roles X <Agent>("x"), Y <Agent>("y")
        parameters input <String>("i")
        X -> Y: work <Action>("work")[in input]
    }`)
	assert.Equal(t, []string{string(diag.TypeMismatch)}, kinds(report.ByCode(diag.CodeCompositionError)))
}

func TestCompositionDependencyFailure(t *testing.T) {
	report := validate(t, `Outer <Protocol>("outer") {
        roles A <Agent>("a"), B <Agent>("b")
        parameters x <Int>("x")
        Inner <Enactment>(A, B, out x)
        B -> A: use <Action>("use")[in x]
    }
    Inner <Protocol>("inner") {
        roles X <Agent>("x"), Y <Agent>("y")
        parameters x <Int>("x")
        X -> Y: one <Action>("one")[out x]
        Y -> X: two <Action>("two")[out x]
    }`)

	require.Len(t, report.ByCode(diag.CodeSafetyViolation), 1)
	assert.Equal(t, []string{string(diag.DependencyFailed)}, kinds(report.ErrorsFor("Outer")))
	assert.Empty(t, report.Accepted)
}

func TestCyclicCompositionIsFatalForBatch(t *testing.T) {
	report := validate(t, `P <Protocol>("p") {
        roles A <Agent>("a"), B <Agent>("b")
        parameters x <Int>("x")
        Q <Enactment>(A, B, out x)
    }
    Q <Protocol>("q") {
        roles A <Agent>("a"), B <Agent>("b")
        parameters x <Int>("x")
        P <Enactment>(A, B, out x)
    }
    Free <Protocol>("independent") {
        roles A <Agent>("a")
        parameters y <Int>("y")
        A -> A: n <Action>("n")[out y]
    }`)

	require.Len(t, report.Errors, 1)
	assert.Equal(t, string(diag.CyclicComposition), report.Errors[0].Kind)
	assert.Equal(t, []string{"P", "Q", "P"}, report.Errors[0].Cycle)
	assert.Empty(t, report.Accepted)
	assert.Empty(t, report.Warnings)
}

func TestValidateIsDeterministicUnderConcurrency(t *testing.T) {
	src := purchaseSrc + "\n" + compositionSrc
	first := validate(t, src)
	for i := 0; i < 10; i++ {
		model, diags, err := parser.ParseAndLink(src)
		require.NoError(t, err)
		again, err := Validate(context.Background(), model, diags, Options{Concurrency: 2})
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestValidateHonoursCancellation(t *testing.T) {
	model, diags, err := parser.ParseAndLink(purchaseSrc)
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = Validate(ctx, model, diags, Options{})
	assert.ErrorIs(t, err, context.Canceled)
}
