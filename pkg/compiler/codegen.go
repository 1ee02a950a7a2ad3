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

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/arlobright/accumac/pkg/isa"
)

// funcParam is one parameter's (type, name) pair.
type funcParam struct {
	typ  string
	name string
}

// funcSig is one overload of a declared function.
type funcSig struct {
	name       string
	label      string
	returnType string
	params     []funcParam
}

// CodeGenError reports a code-generation-time semantic failure (unresolved
// identifier, overload mismatch, bad method call).
type CodeGenError struct {
	Line    int
	Message string
}

func (e *CodeGenError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d: %s", e.Line, e.Message)
	}
	return e.Message
}

type codegen struct {
	dataSection []string
	codeSection []string
	funcSection []string

	variables map[string]string // varLabel -> type
	functions map[string][]*funcSig
	constLits map[int64]string // large literal value -> its const_<value> label

	labelCounter int
	strCounter   int
	arrCounter   int

	currentFunction *funcSig
	currentTrue     string
	currentFalse    string
	breakLabels     []string
}

// reservedSignatures is the fixed intrinsic table spec.md §4.7 names: `in`
// and `out`, each overloaded by the value they read or print.
var reservedSignatures = map[string][]funcSig{
	"in": {
		{returnType: "int"},
		{returnType: "char"},
		{returnType: "string", params: []funcParam{{typ: "int"}}},
		{returnType: "int[]", params: []funcParam{{typ: "int"}}},
	},
	"out": {
		{returnType: "void", params: []funcParam{{typ: "int"}}},
		{returnType: "void", params: []funcParam{{typ: "uint"}}},
		{returnType: "void", params: []funcParam{{typ: "char"}}},
		{returnType: "void", params: []funcParam{{typ: "string"}}},
		{returnType: "void", params: []funcParam{{typ: "int[]"}}},
	},
}

// Generate runs the full syntax-directed code generation pass over a
// parsed program and returns assembly text ready for pkg/assembler.
func Generate(program *blockNode) (string, error) {
	cg := &codegen{variables: map[string]string{}, functions: map[string][]*funcSig{}, constLits: map[int64]string{}}

	if err := cg.collectFunctions(program); err != nil {
		return "", err
	}

	cg.emitCodeLabel("_start")
	cg.emitCode("ei") // input is interrupt-driven; see pkg/compiler/runtime.go
	for _, child := range program.children {
		if _, ok := child.(*functionNode); ok {
			continue
		}
		if err := cg.genStmt(child); err != nil {
			return "", err
		}
	}
	cg.emitCode("halt")

	for _, child := range program.children {
		fn, ok := child.(*functionNode)
		if !ok {
			continue
		}
		if err := cg.genFunction(fn); err != nil {
			return "", err
		}
	}

	return cg.assemble(), nil
}

func (cg *codegen) collectFunctions(program *blockNode) error {
	for _, child := range program.children {
		fn, ok := child.(*functionNode)
		if !ok {
			continue
		}
		paramTypes := make([]string, len(fn.parameters))
		params := make([]funcParam, len(fn.parameters))
		for i, p := range fn.parameters {
			paramTypes[i] = p.typ
			params[i] = funcParam{typ: p.typ, name: p.name}
		}
		label := mangle(fn.name, paramTypes)
		for _, existing := range cg.functions[fn.name] {
			if existing.label == label {
				return &CodeGenError{Message: "duplicate overload of " + fn.name}
			}
		}
		cg.functions[fn.name] = append(cg.functions[fn.name], &funcSig{
			name: fn.name, label: label, returnType: fn.returnType, params: params,
		})
	}
	return nil
}

func mangle(name string, paramTypes []string) string {
	var b strings.Builder
	b.WriteString("func_")
	b.WriteString(name)
	for _, t := range paramTypes {
		b.WriteByte('_')
		b.WriteString(typeTag(t))
	}
	return b.String()
}

func typeTag(t string) string {
	switch t {
	case "int", "uint":
		return "i"
	case "string":
		return "s"
	case "bool":
		return "b"
	case "int[]":
		return "ai"
	case "char":
		return "c"
	default:
		return "x"
	}
}

func (cg *codegen) findFunction(name string, argTypes []string) *funcSig {
	for _, sig := range cg.functions[name] {
		if len(sig.params) != len(argTypes) {
			continue
		}
		match := true
		for i, p := range sig.params {
			if p.typ != argTypes[i] {
				match = false
				break
			}
		}
		if match {
			return sig
		}
	}
	return nil
}

func (cg *codegen) findReserved(name string, argTypes []string) *funcSig {
	for i := range reservedSignatures[name] {
		sig := &reservedSignatures[name][i]
		if len(sig.params) != len(argTypes) {
			continue
		}
		match := true
		for j, p := range sig.params {
			if p.typ != argTypes[j] {
				match = false
				break
			}
		}
		if match {
			return sig
		}
	}
	return nil
}

func (cg *codegen) emitCode(line string) {
	if cg.currentFunction != nil {
		cg.funcSection = append(cg.funcSection, "  "+line)
	} else {
		cg.codeSection = append(cg.codeSection, "  "+line)
	}
}

func (cg *codegen) emitCodeLabel(label string) {
	if cg.currentFunction != nil {
		cg.funcSection = append(cg.funcSection, label+":")
	} else {
		cg.codeSection = append(cg.codeSection, label+":")
	}
}

func (cg *codegen) emitData(line string) {
	cg.dataSection = append(cg.dataSection, "  "+line)
}

func (cg *codegen) getNewLabel() string {
	label := "L" + strconv.Itoa(cg.labelCounter)
	cg.labelCounter++
	return label
}

// getVarLabel implements the same scoping rule as the original: a
// function's own parameter wins, then a global of the same name, then a
// function-local variable namespaced by the function's mangled label.
func (cg *codegen) getVarLabel(name string) string {
	if cg.currentFunction != nil {
		for _, p := range cg.currentFunction.params {
			if p.name == name {
				return "arg_" + cg.currentFunction.label + "_" + name
			}
		}
		if _, ok := cg.variables["var_"+name]; ok {
			return "var_" + name
		}
		return "var_" + cg.currentFunction.label + "_" + name
	}
	return "var_" + name
}

func (cg *codegen) genStmt(n node) error {
	switch v := n.(type) {
	case *varDeclNode:
		varLabel := cg.getVarLabel(v.name)
		cg.emitData(varLabel + ": 0")
		cg.variables[varLabel] = v.typ
		if err := cg.genExpr(v.value); err != nil {
			return err
		}
		cg.emitCode("st " + varLabel)
		return nil

	case *assignNode:
		return cg.genAssign(v)

	case *ifNode:
		return cg.genIf(v)

	case *whileNode:
		return cg.genWhile(v)

	case *breakNode:
		if len(cg.breakLabels) == 0 {
			return &CodeGenError{Message: "break outside of loop"}
		}
		cg.emitCode("jmp " + cg.breakLabels[len(cg.breakLabels)-1])
		return nil

	case *returnNode:
		return cg.genReturn(v)

	case *blockNode:
		for _, child := range v.children {
			if err := cg.genStmt(child); err != nil {
				return err
			}
		}
		return nil

	default:
		// Expression statement: evaluate and discard.
		return cg.genExpr(n)
	}
}

func (cg *codegen) genAssign(v *assignNode) error {
	if err := cg.genExpr(v.value); err != nil {
		return err
	}

	switch target := v.target.(type) {
	case *identifierNode:
		cg.emitCode("st " + cg.getVarLabel(target.name))
		return nil
	case *arrayGetNode:
		cg.emitCode("push")
		if err := cg.genExpr(target.index); err != nil {
			return err
		}
		cg.emitCode("inc") // +1: element 0 sits past the length word
		cg.emitCode("st temp_right")
		if err := cg.genExpr(target.object); err != nil {
			return err
		}
		cg.emitCode("add temp_right")
		cg.emitCode("st temp_right")
		cg.emitCode("pop")
		cg.emitCode("sta temp_right")
		return nil
	default:
		return &CodeGenError{Message: "invalid assignment target"}
	}
}

func (cg *codegen) genIf(v *ifNode) error {
	thenLabel := cg.getNewLabel()
	endLabel := cg.getNewLabel()
	elseLabel := endLabel
	if v.elseBranch != nil {
		elseLabel = cg.getNewLabel()
	}

	if err := cg.genCondition(v.condition, thenLabel, elseLabel); err != nil {
		return err
	}

	cg.emitCodeLabel(thenLabel)
	if err := cg.genStmt(v.thenBranch); err != nil {
		return err
	}
	if v.elseBranch != nil {
		cg.emitCode("jmp " + endLabel)
		cg.emitCodeLabel(elseLabel)
		if err := cg.genStmt(v.elseBranch); err != nil {
			return err
		}
	}
	cg.emitCodeLabel(endLabel)
	return nil
}

func (cg *codegen) genWhile(v *whileNode) error {
	startLabel := cg.getNewLabel()
	bodyLabel := cg.getNewLabel()
	endLabel := cg.getNewLabel()

	cg.breakLabels = append(cg.breakLabels, endLabel)

	cg.emitCodeLabel(startLabel)
	if err := cg.genCondition(v.condition, bodyLabel, endLabel); err != nil {
		return err
	}

	cg.emitCodeLabel(bodyLabel)
	if err := cg.genStmt(v.body); err != nil {
		return err
	}
	cg.emitCode("jmp " + startLabel)
	cg.emitCodeLabel(endLabel)

	cg.breakLabels = cg.breakLabels[:len(cg.breakLabels)-1]
	return nil
}

// genCondition evaluates cond so that control reaches trueLabel when it
// holds and falseLabel otherwise, short-circuiting && and || the way
// original_source/translator/codeGenerator.cpp's true/false label
// propagation does, instead of always materializing a 0/1 in ACC first.
func (cg *codegen) genCondition(cond node, trueLabel, falseLabel string) error {
	switch v := cond.(type) {
	case *binaryOpNode:
		switch v.op {
		case "&&":
			mid := cg.getNewLabel()
			if err := cg.genCondition(v.left, mid, falseLabel); err != nil {
				return err
			}
			cg.emitCodeLabel(mid)
			return cg.genCondition(v.right, trueLabel, falseLabel)
		case "||":
			mid := cg.getNewLabel()
			if err := cg.genCondition(v.left, trueLabel, mid); err != nil {
				return err
			}
			cg.emitCodeLabel(mid)
			return cg.genCondition(v.right, trueLabel, falseLabel)
		case "==", "!=", ">", ">=", "<", "<=":
			return cg.genComparisonBranch(v, trueLabel, falseLabel)
		}
	case *unaryOpNode:
		if v.op == "!" {
			return cg.genCondition(v.operand, falseLabel, trueLabel)
		}
	}

	if err := cg.genExpr(cond); err != nil {
		return err
	}
	cg.emitCode("jnz " + trueLabel)
	cg.emitCode("jmp " + falseLabel)
	return nil
}

func (cg *codegen) genComparisonBranch(v *binaryOpNode, trueLabel, falseLabel string) error {
	leftType, err := cg.evalType(v.left)
	if err != nil {
		return err
	}
	rightType, err := cg.evalType(v.right)
	if err != nil {
		return err
	}
	unsigned := leftType == "uint" || rightType == "uint"

	if err := cg.genExpr(v.left); err != nil {
		return err
	}
	cg.emitCode("push")
	if err := cg.genExpr(v.right); err != nil {
		return err
	}
	cg.emitCode("st temp_right")
	cg.emitCode("pop")
	cg.emitCode("cmp temp_right")
	cg.emitCode(conditionalMnemonic(v.op, unsigned) + " " + trueLabel)
	cg.emitCode("jmp " + falseLabel)
	return nil
}

func conditionalMnemonic(op string, unsigned bool) string {
	switch op {
	case "==":
		return "jz"
	case "!=":
		return "jnz"
	case ">":
		if unsigned {
			return "ja"
		}
		return "jg"
	case ">=":
		if unsigned {
			return "jae"
		}
		return "jge"
	case "<":
		if unsigned {
			return "jb"
		}
		return "jl"
	case "<=":
		if unsigned {
			return "jbe"
		}
		return "jle"
	}
	return "jz"
}

func (cg *codegen) genReturn(v *returnNode) error {
	if v.returnValue != nil {
		if err := cg.genExpr(v.returnValue); err != nil {
			return err
		}
	} else {
		cg.emitCode("ldi 0")
	}
	cg.emitCode("st temp_right")
	cg.emitCode("ld temp_ret_addr")
	cg.emitCode("push")
	cg.emitCode("ld temp_right")
	cg.emitCode("ret")
	return nil
}

func (cg *codegen) genExpr(n node) error {
	switch v := n.(type) {
	case *numberLiteralNode:
		if v.value > int64(isa.AddrMask) {
			cg.emitCode("ld " + cg.constLabel(v.value))
		} else {
			cg.emitCode("ldi " + strconv.FormatInt(v.value, 10))
		}
		return nil

	case *charLiteralNode:
		cg.emitCode("ldi " + strconv.Itoa(int(v.value)))
		return nil

	case *stringLiteralNode:
		label := "str_" + strconv.Itoa(cg.strCounter)
		cg.strCounter++
		cg.emitData(label + ": " + quoteAsmString(v.value))
		cg.emitCode("ldi " + label)
		return nil

	case *booleanLiteralNode:
		if v.value {
			cg.emitCode("ldi 1")
		} else {
			cg.emitCode("ldi 0")
		}
		return nil

	case *voidLiteralNode:
		return nil

	case *intArrayLiteralNode:
		return cg.genArrayLiteral(v)

	case *arrayGetNode:
		return cg.genArrayGet(v)

	case *methodCallNode:
		return cg.genMethodCall(v)

	case *identifierNode:
		cg.emitCode("ld " + cg.getVarLabel(v.name))
		return nil

	case *assignNode:
		return cg.genAssign(v)

	case *binaryOpNode:
		return cg.genBinaryOp(v)

	case *unaryOpNode:
		return cg.genUnaryOp(v)

	case *functionCallNode:
		return cg.genFunctionCall(v)
	}
	return &CodeGenError{Message: "not an expression"}
}

// constLabel returns the data label holding a literal too large for ldi's
// 24-bit operand field (codeGenerator.cpp's NumberLiteralNode visitor:
// values over FULL_MASK_24 are spilled to a const_<value> data word and
// loaded with ld instead of ldi). Reuses the same label for a repeated
// value rather than emitting it twice, which would redeclare the label.
func (cg *codegen) constLabel(value int64) string {
	if label, ok := cg.constLits[value]; ok {
		return label
	}
	label := "const_" + strconv.FormatInt(value, 10)
	cg.constLits[value] = label
	cg.emitData(label + ": " + strconv.FormatInt(value, 10))
	return label
}

// genArrayLiteral emits a length-prefixed array (the length word lets
// arr_size and write_arr work without a separate symbol table entry).
func (cg *codegen) genArrayLiteral(v *intArrayLiteralNode) error {
	label := "arr_" + strconv.Itoa(cg.arrCounter)
	cg.arrCounter++

	parts := make([]string, 0, len(v.values)+1)
	parts = append(parts, strconv.Itoa(len(v.values)))
	for _, item := range v.values {
		num, ok := item.(*numberLiteralNode)
		if !ok {
			return &CodeGenError{Message: "array literal elements must be number literals"}
		}
		parts = append(parts, strconv.FormatInt(num.value, 10))
	}
	cg.emitData(label + ": " + strings.Join(parts, ", "))
	cg.emitCode("ldi " + label)
	return nil
}

func (cg *codegen) genArrayGet(v *arrayGetNode) error {
	if err := cg.genExpr(v.object); err != nil {
		return err
	}
	cg.emitCode("push")
	if err := cg.genExpr(v.index); err != nil {
		return err
	}
	cg.emitCode("inc") // skip the length word
	cg.emitCode("st temp_right")
	cg.emitCode("pop")
	cg.emitCode("add temp_right")
	cg.emitCode("st temp_right")
	cg.emitCode("lda temp_right")
	return nil
}

func (cg *codegen) genMethodCall(v *methodCallNode) error {
	if v.methodName != "size" {
		return &CodeGenError{Message: "unknown method " + v.methodName}
	}
	if err := cg.genExpr(v.object); err != nil {
		return err
	}
	cg.emitCode("call arr_size")
	return nil
}

func (cg *codegen) genUnaryOp(v *unaryOpNode) error {
	switch v.op {
	case "-":
		if err := cg.genExpr(v.operand); err != nil {
			return err
		}
		cg.emitCode("not")
		cg.emitCode("inc")
		return nil
	case "!":
		trueLabel := cg.getNewLabel()
		endLabel := cg.getNewLabel()
		if err := cg.genCondition(v.operand, endLabel, trueLabel); err != nil {
			return err
		}
		cg.emitCodeLabel(trueLabel)
		cg.emitCode("ldi 1")
		cg.emitCode("jmp " + endLabel)
		cg.emitCodeLabel(endLabel)
		return nil
	}
	return &CodeGenError{Message: "unknown unary operator " + v.op}
}

func (cg *codegen) genBinaryOp(v *binaryOpNode) error {
	switch v.op {
	case "+", "-", "*", "/", "%":
		if err := cg.genExpr(v.left); err != nil {
			return err
		}
		cg.emitCode("push")
		if err := cg.genExpr(v.right); err != nil {
			return err
		}
		cg.emitCode("st temp_right")
		cg.emitCode("pop")
		cg.emitCode(arithMnemonic(v.op) + " temp_right")
		return nil

	case "&&", "||", "==", "!=", ">", ">=", "<", "<=":
		trueLabel := cg.getNewLabel()
		endLabel := cg.getNewLabel()
		falseLabel := cg.getNewLabel()
		if err := cg.genCondition(v, trueLabel, falseLabel); err != nil {
			return err
		}
		cg.emitCodeLabel(falseLabel)
		cg.emitCode("ldi 0")
		cg.emitCode("jmp " + endLabel)
		cg.emitCodeLabel(trueLabel)
		cg.emitCode("ldi 1")
		cg.emitCodeLabel(endLabel)
		return nil
	}
	return &CodeGenError{Message: "unknown binary operator " + v.op}
}

func arithMnemonic(op string) string {
	switch op {
	case "+":
		return "add"
	case "-":
		return "sub"
	case "*":
		return "mul"
	case "/":
		return "div"
	case "%":
		return "rem"
	}
	return "add"
}

func (cg *codegen) genFunctionCall(v *functionCallNode) error {
	argTypes := make([]string, len(v.parameters))
	for i, p := range v.parameters {
		t, err := cg.evalType(p)
		if err != nil {
			return err
		}
		argTypes[i] = t
	}

	if _, ok := reservedSignatures[v.name]; ok {
		return cg.genReservedCall(v, argTypes)
	}
	return cg.genRegularCall(v, argTypes)
}

func (cg *codegen) genReservedCall(v *functionCallNode, argTypes []string) error {
	sig := cg.findReserved(v.name, argTypes)
	if sig == nil {
		return &CodeGenError{Message: "no matching overload for " + v.name}
	}

	switch v.name {
	case "in":
		if len(v.parameters) == 0 {
			cg.emitCode("ldi 0")
		} else if err := cg.genExpr(v.parameters[0]); err != nil {
			return err
		}
		cg.emitCode("st input_count")

		switch sig.returnType {
		case "int", "uint":
			cg.emitCode("call read_int")
		case "char":
			cg.emitCode("call read_char")
		case "string":
			cg.emitCode("call read_string")
		case "int[]":
			cg.emitCode("call read_arr")
		}

	case "out":
		if err := cg.genExpr(v.parameters[0]); err != nil {
			return err
		}
		switch argTypes[0] {
		case "int":
			cg.emitCode("call write_int")
		case "uint":
			cg.emitCode("call write_uint")
		case "char":
			cg.emitCode("call write_char")
		case "string":
			cg.emitCode("call write_string")
		case "int[]":
			cg.emitCode("call write_arr")
		}
	}
	return nil
}

func (cg *codegen) genRegularCall(v *functionCallNode, argTypes []string) error {
	sig := cg.findFunction(v.name, argTypes)
	if sig == nil {
		return &CodeGenError{Message: "no matching overload for " + v.name}
	}

	saving := cg.currentFunction
	if saving != nil {
		cg.emitCode("ld temp_ret_addr")
		cg.emitCode("push")
		for _, p := range saving.params {
			cg.emitCode("ld arg_" + saving.label + "_" + p.name)
			cg.emitCode("push")
		}
	}

	for _, arg := range v.parameters {
		if err := cg.genExpr(arg); err != nil {
			return err
		}
		cg.emitCode("push")
	}

	cg.emitCode("call " + sig.label)

	if saving != nil {
		cg.emitCode("st temp_right")
		for i := len(saving.params) - 1; i >= 0; i-- {
			cg.emitCode("pop")
			cg.emitCode("st arg_" + saving.label + "_" + saving.params[i].name)
		}
		cg.emitCode("pop")
		cg.emitCode("st temp_ret_addr")
		cg.emitCode("ld temp_right")
	}
	return nil
}

func (cg *codegen) genFunction(fn *functionNode) error {
	sig := cg.findFunctionByLabel(fn)
	if sig == nil {
		return &CodeGenError{Message: "internal error: function signature missing for " + fn.name}
	}

	for _, p := range sig.params {
		argLabel := "arg_" + sig.label + "_" + p.name
		cg.emitData(argLabel + ": 0")
		cg.variables[argLabel] = p.typ
	}

	previous := cg.currentFunction
	cg.currentFunction = sig

	cg.emitCodeLabel(sig.label)
	cg.emitCode("pop")
	cg.emitCode("st temp_ret_addr")
	for i := len(sig.params) - 1; i >= 0; i-- {
		argLabel := "arg_" + sig.label + "_" + sig.params[i].name
		cg.emitCode("pop")
		cg.emitCode("st " + argLabel)
	}

	if err := cg.genStmt(fn.body); err != nil {
		return err
	}

	cg.currentFunction = previous
	return nil
}

func (cg *codegen) findFunctionByLabel(fn *functionNode) *funcSig {
	paramTypes := make([]string, len(fn.parameters))
	for i, p := range fn.parameters {
		paramTypes[i] = p.typ
	}
	label := mangle(fn.name, paramTypes)
	for _, sig := range cg.functions[fn.name] {
		if sig.label == label {
			return sig
		}
	}
	return nil
}

// evalType resolves an expression's static type the way
// original_source/translator/codeGenerator.cpp's evalType does: a direct
// mapping for literals, a variables-map lookup for identifiers, and a
// recursive descent for operators and calls.
func (cg *codegen) evalType(n node) (string, error) {
	switch v := n.(type) {
	case *numberLiteralNode:
		return "int", nil
	case *charLiteralNode:
		return "char", nil
	case *stringLiteralNode:
		return "string", nil
	case *booleanLiteralNode:
		return "bool", nil
	case *voidLiteralNode:
		return "void", nil
	case *intArrayLiteralNode:
		return "int[]", nil
	case *arrayGetNode:
		return "int", nil
	case *methodCallNode:
		return "int", nil
	case *identifierNode:
		label := cg.getVarLabel(v.name)
		t, ok := cg.variables[label]
		if !ok {
			return "", &CodeGenError{Message: "unresolved identifier " + v.name}
		}
		return t, nil
	case *binaryOpNode:
		switch v.op {
		case "+", "-", "*", "/", "%":
			return "int", nil
		case "==", "!=", ">", ">=", "<", "<=", "&&", "||":
			return "bool", nil
		}
		return "", &CodeGenError{Message: "unknown operator " + v.op}
	case *unaryOpNode:
		if v.op == "!" {
			return "bool", nil
		}
		return "int", nil
	case *functionCallNode:
		argTypes := make([]string, len(v.parameters))
		for i, p := range v.parameters {
			t, err := cg.evalType(p)
			if err != nil {
				return "", err
			}
			argTypes[i] = t
		}
		if _, ok := reservedSignatures[v.name]; ok {
			sig := cg.findReserved(v.name, argTypes)
			if sig == nil {
				return "", &CodeGenError{Message: "no matching overload for " + v.name}
			}
			return sig.returnType, nil
		}
		sig := cg.findFunction(v.name, argTypes)
		if sig == nil {
			return "", &CodeGenError{Message: "no matching overload for " + v.name}
		}
		return sig.returnType, nil
	}
	return "", &CodeGenError{Message: "node has no type"}
}

// quoteAsmString renders a decoded string value back into pkg/assembler's
// escaped-string syntax, null-terminated the way the runtime's read/write
// string routines expect.
func quoteAsmString(s string) string {
	var b strings.Builder
	b.WriteByte('"')
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '\n':
			b.WriteString(`\n`)
		case '\t':
			b.WriteString(`\t`)
		case '\\':
			b.WriteString(`\\`)
		case '"':
			b.WriteString(`\"`)
		default:
			b.WriteByte(s[i])
		}
	}
	b.WriteString(`\0`)
	b.WriteByte('"')
	return b.String()
}

func (cg *codegen) assemble() string {
	var b strings.Builder

	b.WriteString(".data\n")
	for _, line := range cg.dataSection {
		b.WriteString(line)
		b.WriteByte('\n')
	}
	b.WriteString(runtimeData)

	b.WriteString("\n.text\n")
	b.WriteString(".org 0x20\n")
	b.WriteString(runtimeInterruptHandler)
	b.WriteString(runtimeCode)

	for _, line := range cg.funcSection {
		b.WriteString(line)
		b.WriteByte('\n')
	}
	for _, line := range cg.codeSection {
		b.WriteString(line)
		b.WriteByte('\n')
	}

	return b.String()
}
