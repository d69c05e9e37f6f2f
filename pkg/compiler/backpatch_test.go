package compiler_test

import (
	"bytes"
	"log/slog"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"toyir/pkg/compiler"
	"toyir/pkg/ir"
)

var _ = Describe("Backpatching", func() {
	var code *ir.Chain

	compile := func(src string) {
		prog, err := compiler.Compile(src)
		Expect(err).NotTo(HaveOccurred())
		Expect(prog.Code.Verify()).To(Succeed())
		code = prog.Code
	}

	It("should point an if's CJMP at the NOOP after its body", func() {
		compile("a; { if a > 0 { output a; } }")
		Expect(code.Linear()).To(Equal("CJMP -> OUT -> NOOP"))
		Expect(code.Target(0)).To(Equal(ir.Ref(2)))
	})

	It("should close a while loop with a JMP back to its CJMP", func() {
		compile("a; { while a < 3 { output a; } }")
		Expect(code.Linear()).To(Equal("CJMP -> OUT -> JMP -> NOOP"))
		Expect(code.Target(2)).To(Equal(ir.Ref(0)))
		Expect(code.Target(0)).To(Equal(ir.Ref(3)))
	})

	It("should move the for increment after the body", func() {
		compile("i; { for (i = 0; i < 3; i = i + 1) { output i; } }")
		Expect(code.Linear()).To(Equal("ASSIGN -> CJMP -> OUT -> ASSIGN -> JMP -> NOOP"))
		Expect(code.At(3)).To(Equal(&ir.Assign{Dst: 0, Src1: 0, Op: ir.OpAdd, Src2: 3}))
		Expect(code.Target(4)).To(Equal(ir.Ref(1)))
		Expect(code.Target(1)).To(Equal(ir.Ref(5)))
	})

	Context("switch", func() {
		BeforeEach(func() {
			compile(`v a; {
				switch (v) {
					case 1: { output a; }
					default: { output v; }
					case 2: { a = 2; output a; }
				}
				output v;
			}`)
		})

		It("should keep only guards and the default on the fall-through chain", func() {
			Expect(code.Linear()).To(Equal("CJMP -> OUT -> CJMP -> NOOP -> OUT"))
		})

		It("should allocate the exit NOOP before the cases", func() {
			Expect(code.At(0)).To(Equal(&ir.Noop{}))
		})

		It("should send each case body to the exit", func() {
			Expect(code.Target(1)).To(Equal(ir.Ref(2)))
			Expect(code.Next(2)).To(Equal(ir.Ref(0)))
			Expect(code.Target(4)).To(Equal(ir.Ref(5)))
			Expect(code.Next(6)).To(Equal(ir.Ref(0)))
		})
	})

	It("should land an empty case directly on the exit", func() {
		compile("v; { switch v { case 1: { } } }")
		Expect(code.Target(1)).To(Equal(ir.Ref(0)))
		Expect(code.Linear()).To(Equal("CJMP -> NOOP"))
	})

	It("should log every backpatch at debug level", func() {
		var buf bytes.Buffer
		logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
		_, err := compiler.Compile("a; { if a > 0 { } while a < 0 { } }", compiler.WithLogger(logger))
		Expect(err).NotTo(HaveOccurred())

		Expect(strings.Count(buf.String(), "msg=backpatch")).To(Equal(2))
		Expect(buf.String()).To(ContainSubstring("construct=while"))
		Expect(buf.String()).To(ContainSubstring("msg=\"program assembled\""))
	})
})
