// Copyright (C) 2021  Antonio Lassandro

// This program is free software: you can redistribute it and/or modify it
// under the terms of the GNU General Public License as published by the Free
// Software Foundation, either version 3 of the License, or (at your option)
// any later version.

// This program is distributed in the hope that it will be useful, but WITHOUT
// ANY WARRANTY; without even the implied warranty of MERCHANTABILITY or
// FITNESS FOR A PARTICULAR PURPOSE.  See the GNU General Public License for
// more details.

// You should have received a copy of the GNU General Public License along
// with this program.  If not, see <http://www.gnu.org/licenses/>.

package compiler

import "testing"

func TestParseVarDeclDefaultsToZero(t *testing.T) {
	prog, err := Parse("int x;")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	decl, ok := prog.children[0].(*varDeclNode)
	if !ok {
		t.Fatalf("children[0] = %T, want *varDeclNode", prog.children[0])
	}
	num, ok := decl.value.(*numberLiteralNode)
	if !ok || num.value != 0 {
		t.Fatalf("default value = %#v, want numberLiteralNode{0}", decl.value)
	}
}

func TestParseFunctionWithParams(t *testing.T) {
	prog, err := Parse("int add(int a, int b) { return a + b; }")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	fn, ok := prog.children[0].(*functionNode)
	if !ok {
		t.Fatalf("children[0] = %T, want *functionNode", prog.children[0])
	}
	if fn.name != "add" || fn.returnType != "int" {
		t.Fatalf("fn = %+v", fn)
	}
	if len(fn.parameters) != 2 || fn.parameters[0].name != "a" || fn.parameters[1].typ != "int" {
		t.Fatalf("params = %+v", fn.parameters)
	}
	body := fn.body.(*blockNode)
	ret, ok := body.children[0].(*returnNode)
	if !ok {
		t.Fatalf("body.children[0] = %T, want *returnNode", body.children[0])
	}
	bin, ok := ret.returnValue.(*binaryOpNode)
	if !ok || bin.op != "+" {
		t.Fatalf("return value = %#v, want a + b", ret.returnValue)
	}
}

func TestParseIfElse(t *testing.T) {
	prog, err := Parse("void f() { if (1 < 2) { break; } else { break; } }")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	fn := prog.children[0].(*functionNode)
	body := fn.body.(*blockNode)
	ifStmt, ok := body.children[0].(*ifNode)
	if !ok {
		t.Fatalf("body.children[0] = %T, want *ifNode", body.children[0])
	}
	if ifStmt.elseBranch == nil {
		t.Fatal("expected an else branch")
	}
	cond, ok := ifStmt.condition.(*binaryOpNode)
	if !ok || cond.op != "<" {
		t.Fatalf("condition = %#v, want 1 < 2", ifStmt.condition)
	}
}

func TestParseWhileBreak(t *testing.T) {
	prog, err := Parse("void f() { while (1) { break; } }")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	fn := prog.children[0].(*functionNode)
	body := fn.body.(*blockNode)
	loop, ok := body.children[0].(*whileNode)
	if !ok {
		t.Fatalf("body.children[0] = %T, want *whileNode", body.children[0])
	}
	loopBody := loop.body.(*blockNode)
	if _, ok := loopBody.children[0].(*breakNode); !ok {
		t.Fatalf("loop body = %#v, want a breakNode", loopBody.children[0])
	}
}

func TestParseArrayLiteralAndIndex(t *testing.T) {
	prog, err := Parse("int[] xs = [1, 2, 3]; int y = xs[0];")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	decl := prog.children[0].(*varDeclNode)
	arr, ok := decl.value.(*intArrayLiteralNode)
	if !ok || len(arr.values) != 3 {
		t.Fatalf("value = %#v, want a 3-element array literal", decl.value)
	}

	decl2 := prog.children[1].(*varDeclNode)
	get, ok := decl2.value.(*arrayGetNode)
	if !ok {
		t.Fatalf("value = %#v, want an arrayGetNode", decl2.value)
	}
	if _, ok := get.object.(*identifierNode); !ok {
		t.Fatalf("object = %#v, want identifier xs", get.object)
	}
}

func TestParseMethodCall(t *testing.T) {
	prog, err := Parse("int n = xs.size();")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	decl := prog.children[0].(*varDeclNode)
	call, ok := decl.value.(*methodCallNode)
	if !ok || call.methodName != "size" {
		t.Fatalf("value = %#v, want a size() method call", decl.value)
	}
}

// TestParsePrecedence checks that `1 + 2 * 3 == 7 && 1 < 2` parses with `*`
// binding tighter than `+`, `+`/`==` tighter than `&&`, matching the
// low-to-high precedence chain logicOr < logicAnd < equality < comparison
// < additive < multiplicative.
func TestParsePrecedence(t *testing.T) {
	prog, err := Parse("bool b = 1 + 2 * 3 == 7 && 1 < 2;")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	decl := prog.children[0].(*varDeclNode)
	and, ok := decl.value.(*binaryOpNode)
	if !ok || and.op != "&&" {
		t.Fatalf("top-level op = %#v, want &&", decl.value)
	}

	eq, ok := and.left.(*binaryOpNode)
	if !ok || eq.op != "==" {
		t.Fatalf("and.left = %#v, want ==", and.left)
	}

	sum, ok := eq.left.(*binaryOpNode)
	if !ok || sum.op != "+" {
		t.Fatalf("eq.left = %#v, want +", eq.left)
	}
	product, ok := sum.right.(*binaryOpNode)
	if !ok || product.op != "*" {
		t.Fatalf("sum.right = %#v, want *", sum.right)
	}

	lt, ok := and.right.(*binaryOpNode)
	if !ok || lt.op != "<" {
		t.Fatalf("and.right = %#v, want <", and.right)
	}
}

func TestParseUnaryAndAssignment(t *testing.T) {
	prog, err := Parse("void f() { int x; x = -x; }")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	fn := prog.children[0].(*functionNode)
	body := fn.body.(*blockNode)
	assign, ok := body.children[1].(*assignNode)
	if !ok {
		t.Fatalf("children[1] = %T, want *assignNode", body.children[1])
	}
	neg, ok := assign.value.(*unaryOpNode)
	if !ok || neg.op != "-" {
		t.Fatalf("assign.value = %#v, want unary -", assign.value)
	}
}
