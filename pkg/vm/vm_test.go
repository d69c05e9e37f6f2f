package vm_test

import (
	"bytes"
	"log/slog"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"toyir/pkg/compiler"
	"toyir/pkg/ir"
	"toyir/pkg/vm"
)

func compile(src string) *ir.Program {
	prog, err := compiler.Compile(src)
	Expect(err).NotTo(HaveOccurred())
	return prog
}

var _ = Describe("VM", func() {
	Context("if", func() {
		It("should skip the body when the condition is false", func() {
			prog := compile("a b; { a = 5; b = 1; if (a != a) { output a; } output b; }")
			out, err := vm.Execute(prog)
			Expect(err).NotTo(HaveOccurred())
			Expect(out).To(Equal([]int{1}))
		})

		It("should run the body when the condition is true", func() {
			prog := compile("a b; { a = 5; b = 2; if a > b { output a; } }")
			out, err := vm.Execute(prog)
			Expect(err).NotTo(HaveOccurred())
			Expect(out).To(Equal([]int{5}))
		})
	})

	Context("while", func() {
		It("should traverse the body exactly three times", func() {
			prog := compile("x; { x = 0; while (x < 3) { x = x + 1; } output x; }")
			m := vm.New(prog)
			Expect(m.Run()).To(Succeed())
			Expect(m.Outputs).To(Equal([]int{3}))

			// Node 1 is the CJMP, node 2 the body's ASSIGN.
			Expect(m.Visits(2)).To(Equal(3))
			Expect(m.Visits(1)).To(Equal(4))
		})
	})

	Context("for", func() {
		It("should run the increment after the body", func() {
			prog := compile("i; { for (i = 0; i < 3; i = i + 1) { output i; } }")
			out, err := vm.Execute(prog)
			Expect(err).NotTo(HaveOccurred())
			Expect(out).To(Equal([]int{0, 1, 2}))
		})
	})

	Context("switch", func() {
		src := `v a b c;
{
	a = 10; b = 20; c = 30;
	input v;
	switch (v) {
		case 1: { output a; }
		case 2: { output b; }
		default: { output c; }
	}
	output v;
}
`
		DescribeTable("selects a case with an implicit break",
			func(input string, expected []int) {
				prog := compile(src + input)
				out, err := vm.Execute(prog)
				Expect(err).NotTo(HaveOccurred())
				Expect(out).To(Equal(expected))
			},
			Entry("first case", "1", []int{10, 1}),
			Entry("second case", "2", []int{20, 2}),
			Entry("no match falls into default", "7", []int{30, 7}),
		)

		It("should run a default placed before a case whenever control reaches it", func() {
			prog := compile(`v a b; { a = 1; b = 2; input v;
				switch v { default: { output a; } case 5: { output b; } } } 5`)
			out, err := vm.Execute(prog)
			Expect(err).NotTo(HaveOccurred())
			Expect(out).To(Equal([]int{1, 2}))
		})

		It("should let the first of two equal cases win", func() {
			prog := compile("v a b; { a = 1; b = 2; v = 3; switch v { case 3: { output a; } case 3: { output b; } } }")
			out, err := vm.Execute(prog)
			Expect(err).NotTo(HaveOccurred())
			Expect(out).To(Equal([]int{1}))
		})

		It("should treat an empty case as a break", func() {
			prog := compile("v w; { v = 1; w = 9; switch v { case 1: { } case 2: { output v; } } output w; }")
			out, err := vm.Execute(prog)
			Expect(err).NotTo(HaveOccurred())
			Expect(out).To(Equal([]int{9}))
		})
	})

	Context("input and output", func() {
		It("should consume inputs in order and write values to the output", func() {
			var buf bytes.Buffer
			prog := compile("a b; { input a; input b; output b; output a; } 3 -4")
			m := vm.New(prog, vm.WithOutput(&buf))
			Expect(m.Run()).To(Succeed())
			Expect(buf.String()).To(Equal("-4 3 "))
		})

		It("should fail when inputs run out", func() {
			prog := compile("a; { input a; input a; } 1")
			_, err := vm.Execute(prog)
			Expect(err).To(MatchError(vm.ErrInputExhausted))
		})
	})

	Context("arithmetic", func() {
		It("should evaluate every operator", func() {
			prog := compile(`a b r; { a = 17; b = 5;
				r = a + b; output r;
				r = a - b; output r;
				r = a * b; output r;
				r = a / b; output r;
				r = a; output r; }`)
			out, err := vm.Execute(prog)
			Expect(err).NotTo(HaveOccurred())
			Expect(out).To(Equal([]int{22, 12, 85, 3, 17}))
		})

		It("should report division by zero", func() {
			prog := compile("a b; { b = 0; a = 1 / b; }")
			_, err := vm.Execute(prog)
			Expect(err).To(MatchError(vm.ErrDivideByZero))
		})
	})

	Context("limits", func() {
		It("should stop an endless loop at the step limit", func() {
			prog := compile("x; { x = 0; while x < 1 { x = 0; } }")
			_, err := vm.Execute(prog, vm.WithMaxSteps(100))
			Expect(err).To(MatchError(vm.ErrStepLimit))
		})

		It("should reject a jump outside the arena", func() {
			c := ir.NewChain()
			c.Emit(&ir.Jump{Target: 42})
			_, err := vm.Execute(&ir.Program{Code: c})
			Expect(err).To(MatchError(vm.ErrBadReference))
		})
	})

	It("should halt immediately on an empty program", func() {
		m := vm.New(compile("a; { }"))
		Expect(m.Halted).To(BeTrue())
		Expect(m.Run()).To(Succeed())
		Expect(m.Steps()).To(Equal(0))
	})

	It("should leave the program's memory untouched", func() {
		prog := compile("a; { a = 9; }")
		before := append([]int(nil), prog.Memory...)
		m := vm.New(prog)
		Expect(m.Run()).To(Succeed())
		Expect(m.Memory()[0]).To(Equal(9))
		Expect(prog.Memory).To(Equal(before))
	})

	It("should trace each step", func() {
		var buf bytes.Buffer
		logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: vm.LevelTrace}))
		_, err := vm.Execute(compile("a; { a = 1; output a; }"), vm.WithLogger(logger))
		Expect(err).NotTo(HaveOccurred())
		Expect(buf.String()).To(ContainSubstring("inst=ASSIGN"))
		Expect(buf.String()).To(ContainSubstring("inst=OUT"))
	})
})
