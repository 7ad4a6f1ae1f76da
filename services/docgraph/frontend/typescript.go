// Copyright (C) 2025 Tidewater Labs (oss@tidewaterhq.com)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package frontend

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/typescript/tsx"
	"github.com/smacker/go-tree-sitter/typescript/typescript"
)

// TypeScriptParserOption configures a TypeScriptParser instance.
type TypeScriptParserOption func(*TypeScriptParser)

// WithMaxFileSize sets the maximum file size the parser will accept.
func WithMaxFileSize(bytes int64) TypeScriptParserOption {
	return func(p *TypeScriptParser) {
		if bytes > 0 {
			p.maxFileSize = bytes
		}
	}
}

// TypeScriptParser extracts declaration nodes from TypeScript source.
//
// Description:
//
//	TypeScriptParser uses tree-sitter to parse TypeScript files and
//	extract the declaration tree consumed by the converter. Parsing is
//	error-tolerant: syntactically invalid files yield partial results
//	with errors recorded on the ParseResult.
//
// Thread Safety:
//
//	TypeScriptParser instances are safe for concurrent use. Each Parse
//	call creates its own tree-sitter parser instance.
type TypeScriptParser struct {
	maxFileSize int64
}

// NewTypeScriptParser creates a parser with the given options.
func NewTypeScriptParser(opts ...TypeScriptParserOption) *TypeScriptParser {
	p := &TypeScriptParser{
		maxFileSize: DefaultMaxFileSize,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Language returns the canonical language name for this parser.
func (p *TypeScriptParser) Language() string {
	return "typescript"
}

// Extensions returns the file extensions this parser handles.
func (p *TypeScriptParser) Extensions() []string {
	return []string{".ts", ".tsx", ".mts", ".cts"}
}

// Parse extracts declaration nodes from TypeScript source code.
//
// Description:
//
//	Validates size and encoding, parses with tree-sitter (TSX grammar
//	for .tsx files) and walks the tree extracting classes, interfaces,
//	enums, functions, variables, type aliases and namespaces together
//	with their members, doc comments and type descriptors.
//
// Inputs:
//
//	ctx - Context for cancellation. Checked before and after parsing.
//	content - Raw source bytes. Must be valid UTF-8.
//	filePath - Path relative to the project root, forward slashes.
//
// Outputs:
//
//	*ParseResult - Extracted nodes. May carry partial results plus
//	               errors for syntactically invalid code.
//	error - ErrFileTooLarge, ErrInvalidContent, context errors, or a
//	        tree-sitter failure.
func (p *TypeScriptParser) Parse(ctx context.Context, content []byte, filePath string) (*ParseResult, error) {
	ctx, span := startParseSpan(ctx, "typescript", filePath, len(content))
	defer span.End()

	start := time.Now()

	if err := ctx.Err(); err != nil {
		recordParseMetrics("typescript", time.Since(start), 0, false)
		return nil, fmt.Errorf("parse canceled before start: %w", err)
	}

	if int64(len(content)) > p.maxFileSize {
		recordParseMetrics("typescript", time.Since(start), 0, false)
		return nil, fmt.Errorf("%w: size %d exceeds limit %d", ErrFileTooLarge, len(content), p.maxFileSize)
	}

	if len(content) > WarnFileSize {
		slog.Warn("parsing large file",
			slog.String("file", filePath),
			slog.Int("size_bytes", len(content)))
	}

	if !utf8.Valid(content) {
		recordParseMetrics("typescript", time.Since(start), 0, false)
		return nil, fmt.Errorf("%w: content is not valid UTF-8", ErrInvalidContent)
	}

	hash := sha256.Sum256(content)

	parser := sitter.NewParser()
	if strings.HasSuffix(filePath, ".tsx") {
		parser.SetLanguage(tsx.GetLanguage())
	} else {
		parser.SetLanguage(typescript.GetLanguage())
	}

	tree, err := parser.ParseCtx(ctx, nil, content)
	if err != nil {
		recordParseMetrics("typescript", time.Since(start), 0, false)
		return nil, fmt.Errorf("tree-sitter parse failed: %w", err)
	}
	defer tree.Close()

	if err := ctx.Err(); err != nil {
		recordParseMetrics("typescript", time.Since(start), 0, false)
		return nil, fmt.Errorf("parse canceled after tree-sitter: %w", err)
	}

	result := &ParseResult{
		FilePath: filePath,
		Language: "typescript",
		Hash:     hex.EncodeToString(hash[:]),
		Nodes:    make([]*Node, 0),
	}

	root := tree.RootNode()
	if root == nil {
		result.Errors = append(result.Errors, "tree-sitter returned nil root node")
		return result, nil
	}
	if root.HasError() {
		result.Errors = append(result.Errors, "source contains syntax errors")
	}

	w := &tsWalker{content: content, filePath: filePath}
	result.Nodes = w.extractStatements(root, nil)

	setParseSpanResult(span, len(result.Nodes), len(result.Errors))
	recordParseMetrics("typescript", time.Since(start), len(result.Nodes), true)

	return result, nil
}

// tsWalker carries per-file state for one extraction walk.
type tsWalker struct {
	content  []byte
	filePath string
}

func (w *tsWalker) text(n *sitter.Node) string {
	return string(w.content[n.StartByte():n.EndByte()])
}

func (w *tsWalker) location(n *sitter.Node) Location {
	return Location{
		FilePath:  w.filePath,
		StartLine: int(n.StartPoint().Row + 1),
		EndLine:   int(n.EndPoint().Row + 1),
		StartCol:  int(n.StartPoint().Column),
		EndCol:    int(n.EndPoint().Column),
	}
}

// extractStatements walks a statement list (program body, namespace
// body) and returns the declaration nodes it contains. scope is the
// qualified-name path of the enclosing namespaces.
func (w *tsWalker) extractStatements(parent *sitter.Node, scope []string) []*Node {
	var out []*Node
	for i := 0; i < int(parent.ChildCount()); i++ {
		child := parent.Child(i)
		switch child.Type() {
		case "export_statement":
			out = append(out, w.extractExport(child, scope)...)
		default:
			if n := w.extractDeclaration(child, scope, false); n != nil {
				out = append(out, n...)
			}
		}
	}
	return out
}

// extractExport unwraps an export statement and marks the inner
// declarations exported.
func (w *tsWalker) extractExport(node *sitter.Node, scope []string) []*Node {
	var out []*Node
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		if ns := w.extractDeclaration(child, scope, true); ns != nil {
			out = append(out, ns...)
		}
	}
	return out
}

// extractDeclaration converts one declaration statement. Returns nil
// for statements that declare nothing documentable.
func (w *tsWalker) extractDeclaration(node *sitter.Node, scope []string, exported bool) []*Node {
	switch node.Type() {
	case "function_declaration", "function_signature":
		if n := w.processFunction(node, scope, exported); n != nil {
			return []*Node{n}
		}
	case "class_declaration":
		if n := w.processClass(node, scope, exported, false); n != nil {
			return []*Node{n}
		}
	case "abstract_class_declaration":
		if n := w.processClass(node, scope, exported, true); n != nil {
			return []*Node{n}
		}
	case "interface_declaration":
		if n := w.processInterface(node, scope, exported); n != nil {
			return []*Node{n}
		}
	case "enum_declaration":
		if n := w.processEnum(node, scope, exported); n != nil {
			return []*Node{n}
		}
	case "type_alias_declaration":
		if n := w.processTypeAlias(node, scope, exported); n != nil {
			return []*Node{n}
		}
	case "lexical_declaration", "variable_declaration":
		return w.processVariables(node, scope, exported)
	case "internal_module", "module":
		if n := w.processNamespace(node, scope, exported); n != nil {
			return []*Node{n}
		}
	case "ambient_declaration", "expression_statement":
		// declare ... wraps its declaration; a bare `namespace a.b {}`
		// statement wraps its internal_module the same way. Unwrap and
		// keep the inner declaration.
		var out []*Node
		for i := 0; i < int(node.ChildCount()); i++ {
			if inner := w.extractDeclaration(node.Child(i), scope, exported); inner != nil {
				out = append(out, inner...)
			}
		}
		return out
	}
	return nil
}

// processNamespace extracts `namespace A.B { ... }` into nested
// namespace nodes with their body converted under the extended scope.
func (w *tsWalker) processNamespace(node *sitter.Node, scope []string, exported bool) *Node {
	var nameText string
	var body *sitter.Node

	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		switch child.Type() {
		case "identifier", "nested_identifier":
			nameText = w.text(child)
		case "string":
			// declare module "foo" — keep the quoted name verbatim.
			nameText = strings.Trim(w.text(child), `"'`)
		case "statement_block":
			body = child
		}
	}

	if nameText == "" {
		return nil
	}

	kind := NodeKindNamespace
	if node.Type() == "module" {
		kind = NodeKindModule
	}

	// namespace A.B {} declares A containing B.
	parts := strings.Split(nameText, ".")
	doc := w.precedingComment(node)

	outer, innerScope := w.buildNamespaceChain(parts, scope, kind, exported, node)
	if body != nil {
		inner := outer
		for len(inner.Children) == 1 && inner.Children[0].Kind == kind {
			inner = inner.Children[0]
		}
		inner.Children = w.extractStatements(body, innerScope)
	}
	outer.Doc = doc
	return outer
}

// buildNamespaceChain creates the nested namespace nodes for a dotted
// name and returns the outermost node plus the scope inside the chain.
func (w *tsWalker) buildNamespaceChain(parts, scope []string, kind NodeKind, exported bool, src *sitter.Node) (*Node, []string) {
	cur := scope
	var outer, prev *Node
	for _, part := range parts {
		n := &Node{
			Kind:     kind,
			Name:     part,
			SymbolID: SymbolPath(cur, part),
			Exported: exported,
			Loc:      w.location(src),
		}
		if outer == nil {
			outer = n
		} else {
			prev.Children = []*Node{n}
		}
		prev = n
		cur = append(append([]string{}, cur...), part)
	}
	return outer, cur
}

// processFunction extracts a function declaration or ambient overload
// signature as one function node carrying exactly one callable shape.
func (w *tsWalker) processFunction(node *sitter.Node, scope []string, exported bool) *Node {
	var name string
	var params []*Node
	var typeParams []*Node
	var returnType *TypeExpr

	doc := w.precedingComment(node)

	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		switch child.Type() {
		case "identifier":
			name = w.text(child)
		case "type_parameters":
			typeParams = w.extractTypeParameters(child)
		case "formal_parameters":
			params = w.extractParameters(child)
		case "type_annotation":
			returnType = w.typeFromAnnotation(child)
		}
	}

	if name == "" {
		return nil
	}

	return &Node{
		Kind:       NodeKindFunction,
		Name:       name,
		SymbolID:   SymbolPath(scope, name),
		Exported:   exported,
		Doc:        doc,
		Type:       returnType,
		Params:     params,
		TypeParams: typeParams,
		Loc:        w.location(node),
	}
}

// processClass extracts a class declaration with heritage and members.
func (w *tsWalker) processClass(node *sitter.Node, scope []string, exported, abstract bool) *Node {
	var name string
	var typeParams []*Node
	var extends, implements []*TypeExpr
	var body *sitter.Node

	doc := w.precedingComment(node)

	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		switch child.Type() {
		case "type_identifier":
			name = w.text(child)
		case "type_parameters":
			typeParams = w.extractTypeParameters(child)
		case "class_heritage":
			extends, implements = w.extractClassHeritage(child)
		case "class_body":
			body = child
		}
	}

	if name == "" {
		return nil
	}

	cls := &Node{
		Kind:       NodeKindClass,
		Name:       name,
		SymbolID:   SymbolPath(scope, name),
		Exported:   exported,
		Abstract:   abstract,
		Doc:        doc,
		TypeParams: typeParams,
		Extends:    extends,
		Implements: implements,
		Loc:        w.location(node),
	}

	if body != nil {
		memberScope := append(append([]string{}, scope...), name)
		cls.Children = w.extractClassMembers(body, memberScope)
	}
	return cls
}

// extractClassMembers walks a class body.
func (w *tsWalker) extractClassMembers(body *sitter.Node, scope []string) []*Node {
	var out []*Node
	for i := 0; i < int(body.ChildCount()); i++ {
		child := body.Child(i)
		switch child.Type() {
		case "method_definition", "method_signature", "abstract_method_signature":
			if m := w.processMethod(child, scope); m != nil {
				out = append(out, m)
			}
		case "public_field_definition", "property_signature":
			if f := w.processProperty(child, scope); f != nil {
				out = append(out, f)
			}
		case "index_signature":
			if ix := w.processIndexSignature(child, scope); ix != nil {
				out = append(out, ix)
			}
		}
	}
	return out
}

// processMethod extracts a method, constructor or accessor.
func (w *tsWalker) processMethod(node *sitter.Node, scope []string) *Node {
	var name string
	var access string
	var isStatic, isAbstract, isOptional bool
	var accessor NodeKind
	var params []*Node
	var typeParams []*Node
	var returnType *TypeExpr

	doc := w.precedingComment(node)

	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		switch child.Type() {
		case "accessibility_modifier":
			access = w.text(child)
		case "static":
			isStatic = true
		case "abstract":
			isAbstract = true
		case "get":
			accessor = NodeKindGetter
		case "set":
			accessor = NodeKindSetter
		case "?":
			isOptional = true
		case "property_identifier":
			name = w.text(child)
		case "type_parameters":
			typeParams = w.extractTypeParameters(child)
		case "formal_parameters":
			params = w.extractParameters(child)
		case "type_annotation":
			returnType = w.typeFromAnnotation(child)
		}
	}

	if name == "" {
		return nil
	}

	kind := NodeKindMethod
	switch {
	case accessor != 0:
		kind = accessor
	case name == "constructor":
		kind = NodeKindConstructor
	}

	return &Node{
		Kind:       kind,
		Name:       name,
		SymbolID:   SymbolPath(scope, name),
		Exported:   access != "private",
		Access:     access,
		Static:     isStatic,
		Abstract:   isAbstract,
		Optional:   isOptional,
		Doc:        doc,
		Type:       returnType,
		Params:     params,
		TypeParams: typeParams,
		Loc:        w.location(node),
	}
}

// processProperty extracts a class field or interface property.
func (w *tsWalker) processProperty(node *sitter.Node, scope []string) *Node {
	var name string
	var access string
	var isStatic, isReadonly, isOptional bool
	var typ *TypeExpr
	var def string
	sawEq := false

	doc := w.precedingComment(node)

	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		switch child.Type() {
		case "accessibility_modifier":
			access = w.text(child)
		case "static":
			isStatic = true
		case "readonly":
			isReadonly = true
		case "?":
			isOptional = true
		case "property_identifier":
			name = w.text(child)
		case "type_annotation":
			typ = w.typeFromAnnotation(child)
		case "=":
			sawEq = true
		default:
			if sawEq && def == "" {
				def = w.text(child)
			}
		}
	}

	if name == "" {
		return nil
	}

	return &Node{
		Kind:     NodeKindProperty,
		Name:     name,
		SymbolID: SymbolPath(scope, name),
		Exported: access != "private",
		Access:   access,
		Static:   isStatic,
		Readonly: isReadonly,
		Optional: isOptional,
		Doc:      doc,
		Type:     typ,
		Default:  def,
		Loc:      w.location(node),
	}
}

// processIndexSignature extracts [key: string]: T members.
func (w *tsWalker) processIndexSignature(node *sitter.Node, scope []string) *Node {
	var keyName string
	var keyType, valueType *TypeExpr

	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		switch child.Type() {
		case "identifier":
			keyName = w.text(child)
		case "type_annotation":
			// First annotation is the key type, second the value type.
			if keyType == nil && keyName != "" && child.StartByte() < node.EndByte() {
				// The key annotation sits inside the brackets; the value
				// annotation follows the closing bracket. Distinguish by
				// whether we already captured a key type.
				keyType = w.typeFromAnnotation(child)
			} else {
				valueType = w.typeFromAnnotation(child)
			}
		}
	}

	if keyName == "" {
		return nil
	}

	key := &Node{
		Kind: NodeKindParameter,
		Name: keyName,
		Type: keyType,
		Loc:  w.location(node),
	}

	return &Node{
		Kind:   NodeKindIndexSignature,
		Name:   keyName,
		Type:   valueType,
		Params: []*Node{key},
		Loc:    w.location(node),
	}
}

// processInterface extracts an interface declaration with heritage
// and members.
func (w *tsWalker) processInterface(node *sitter.Node, scope []string, exported bool) *Node {
	var name string
	var typeParams []*Node
	var extends []*TypeExpr
	var body *sitter.Node

	doc := w.precedingComment(node)

	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		switch child.Type() {
		case "type_identifier":
			name = w.text(child)
		case "type_parameters":
			typeParams = w.extractTypeParameters(child)
		case "extends_type_clause":
			extends = w.extractExtendsTypes(child)
		case "interface_body", "object_type":
			body = child
		}
	}

	if name == "" {
		return nil
	}

	iface := &Node{
		Kind:       NodeKindInterface,
		Name:       name,
		SymbolID:   SymbolPath(scope, name),
		Exported:   exported,
		Doc:        doc,
		TypeParams: typeParams,
		Extends:    extends,
		Loc:        w.location(node),
	}

	if body != nil {
		memberScope := append(append([]string{}, scope...), name)
		iface.Children = w.extractObjectMembers(body, memberScope)
	}
	return iface
}

// extractObjectMembers walks an interface body or object type literal.
func (w *tsWalker) extractObjectMembers(body *sitter.Node, scope []string) []*Node {
	var out []*Node
	for i := 0; i < int(body.ChildCount()); i++ {
		child := body.Child(i)
		switch child.Type() {
		case "property_signature":
			if prop := w.processProperty(child, scope); prop != nil {
				out = append(out, prop)
			}
		case "method_signature", "construct_signature":
			if m := w.processMethod(child, scope); m != nil {
				out = append(out, m)
			}
		case "index_signature":
			if ix := w.processIndexSignature(child, scope); ix != nil {
				out = append(out, ix)
			}
		}
	}
	return out
}

// processEnum extracts an enum declaration with its members.
func (w *tsWalker) processEnum(node *sitter.Node, scope []string, exported bool) *Node {
	var name string
	var body *sitter.Node

	doc := w.precedingComment(node)

	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		switch child.Type() {
		case "identifier":
			name = w.text(child)
		case "enum_body":
			body = child
		}
	}

	if name == "" {
		return nil
	}

	enum := &Node{
		Kind:     NodeKindEnum,
		Name:     name,
		SymbolID: SymbolPath(scope, name),
		Exported: exported,
		Doc:      doc,
		Loc:      w.location(node),
	}

	if body != nil {
		memberScope := append(append([]string{}, scope...), name)
		enum.Children = w.extractEnumMembers(body, memberScope)
	}
	return enum
}

// extractEnumMembers walks an enum body.
func (w *tsWalker) extractEnumMembers(body *sitter.Node, scope []string) []*Node {
	var out []*Node
	for i := 0; i < int(body.ChildCount()); i++ {
		child := body.Child(i)
		switch child.Type() {
		case "enum_assignment":
			var name, value string
			for j := 0; j < int(child.ChildCount()); j++ {
				gc := child.Child(j)
				switch gc.Type() {
				case "property_identifier":
					name = w.text(gc)
				case "string", "number", "unary_expression":
					value = w.text(gc)
				}
			}
			if name != "" {
				out = append(out, &Node{
					Kind:     NodeKindEnumMember,
					Name:     name,
					SymbolID: SymbolPath(scope, name),
					Exported: true,
					Default:  value,
					Loc:      w.location(child),
				})
			}
		case "property_identifier":
			name := w.text(child)
			out = append(out, &Node{
				Kind:     NodeKindEnumMember,
				Name:     name,
				SymbolID: SymbolPath(scope, name),
				Exported: true,
				Loc:      w.location(child),
			})
		}
	}
	return out
}

// processTypeAlias extracts a type alias declaration.
func (w *tsWalker) processTypeAlias(node *sitter.Node, scope []string, exported bool) *Node {
	var name string
	var typeParams []*Node
	var aliased *TypeExpr

	doc := w.precedingComment(node)

	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		switch child.Type() {
		case "type_identifier":
			if name == "" {
				name = w.text(child)
				continue
			}
			aliased = w.typeFromNode(child)
		case "type_parameters":
			typeParams = w.extractTypeParameters(child)
		case "type", "=", ";":
			// keywords and punctuation
		default:
			if name != "" && aliased == nil {
				aliased = w.typeFromNode(child)
			}
		}
	}

	if name == "" {
		return nil
	}

	return &Node{
		Kind:       NodeKindTypeAlias,
		Name:       name,
		SymbolID:   SymbolPath(scope, name),
		Exported:   exported,
		Doc:        doc,
		Type:       aliased,
		TypeParams: typeParams,
		Loc:        w.location(node),
	}
}

// processVariables extracts const/let/var declarations, one node per
// declarator.
func (w *tsWalker) processVariables(node *sitter.Node, scope []string, exported bool) []*Node {
	declKind := "var"
	var out []*Node

	doc := w.precedingComment(node)

	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		switch child.Type() {
		case "const", "let":
			declKind = child.Type()
		case "variable_declarator":
			if v := w.processVariableDeclarator(child, scope, declKind, exported); v != nil {
				if v.Doc == nil {
					v.Doc = doc
				}
				out = append(out, v)
			}
		}
	}
	return out
}

// processVariableDeclarator extracts one variable binding.
func (w *tsWalker) processVariableDeclarator(node *sitter.Node, scope []string, declKind string, exported bool) *Node {
	var name string
	var typ *TypeExpr
	var def string
	sawEq := false

	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		switch child.Type() {
		case "identifier":
			if name == "" {
				name = w.text(child)
			} else if sawEq && def == "" {
				def = w.text(child)
			}
		case "type_annotation":
			typ = w.typeFromAnnotation(child)
		case "=":
			sawEq = true
		default:
			if sawEq && def == "" {
				def = w.text(child)
			}
		}
	}

	if name == "" {
		return nil
	}

	kind := NodeKindVariable
	if declKind == "const" {
		kind = NodeKindConstant
	}

	return &Node{
		Kind:     kind,
		Name:     name,
		SymbolID: SymbolPath(scope, name),
		Exported: exported,
		Type:     typ,
		Default:  def,
		Loc:      w.location(node),
	}
}

// extractParameters walks a formal_parameters node.
func (w *tsWalker) extractParameters(node *sitter.Node) []*Node {
	var out []*Node
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		switch child.Type() {
		case "required_parameter", "optional_parameter":
			if p := w.processParameter(child, child.Type() == "optional_parameter"); p != nil {
				out = append(out, p)
			}
		}
	}
	return out
}

// processParameter extracts one parameter.
func (w *tsWalker) processParameter(node *sitter.Node, optional bool) *Node {
	var name string
	var typ *TypeExpr
	var def string
	isRest := false
	sawEq := false

	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		switch child.Type() {
		case "identifier":
			if name == "" {
				name = w.text(child)
			} else if sawEq && def == "" {
				def = w.text(child)
			}
		case "rest_pattern":
			isRest = true
			for j := 0; j < int(child.ChildCount()); j++ {
				if gc := child.Child(j); gc.Type() == "identifier" {
					name = w.text(gc)
				}
			}
		case "type_annotation":
			typ = w.typeFromAnnotation(child)
		case "=":
			sawEq = true
		case "?":
			optional = true
		default:
			if sawEq && def == "" {
				def = w.text(child)
			}
		}
	}

	if name == "" {
		return nil
	}

	return &Node{
		Kind:     NodeKindParameter,
		Name:     name,
		Optional: optional,
		Rest:     isRest,
		Type:     typ,
		Default:  def,
		Loc:      w.location(node),
	}
}

// extractTypeParameters walks a type_parameters node.
func (w *tsWalker) extractTypeParameters(node *sitter.Node) []*Node {
	var out []*Node
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		if child.Type() != "type_parameter" {
			continue
		}
		tp := &Node{Kind: NodeKindTypeParameter, Loc: w.location(child)}
		for j := 0; j < int(child.ChildCount()); j++ {
			gc := child.Child(j)
			switch gc.Type() {
			case "type_identifier":
				tp.Name = w.text(gc)
			case "constraint":
				tp.Constraint = w.typeFromClause(gc)
			case "default_type":
				tp.DefaultType = w.typeFromClause(gc)
			}
		}
		if tp.Name != "" {
			out = append(out, tp)
		}
	}
	return out
}

// extractClassHeritage splits class heritage into extends and
// implements type lists.
func (w *tsWalker) extractClassHeritage(node *sitter.Node) (extends, implements []*TypeExpr) {
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		switch child.Type() {
		case "extends_clause":
			for j := 0; j < int(child.ChildCount()); j++ {
				gc := child.Child(j)
				switch gc.Type() {
				case "identifier", "type_identifier", "nested_type_identifier", "member_expression", "generic_type":
					extends = append(extends, w.typeFromNode(gc))
				}
			}
		case "implements_clause":
			for j := 0; j < int(child.ChildCount()); j++ {
				gc := child.Child(j)
				switch gc.Type() {
				case "type_identifier", "nested_type_identifier", "generic_type":
					implements = append(implements, w.typeFromNode(gc))
				}
			}
		}
	}
	return extends, implements
}

// extractExtendsTypes walks the extends clause of an interface.
func (w *tsWalker) extractExtendsTypes(node *sitter.Node) []*TypeExpr {
	var out []*TypeExpr
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		switch child.Type() {
		case "type_identifier", "nested_type_identifier", "generic_type":
			out = append(out, w.typeFromNode(child))
		}
	}
	return out
}

// typeFromAnnotation unwraps a type_annotation (": T") to its type.
func (w *tsWalker) typeFromAnnotation(node *sitter.Node) *TypeExpr {
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		if child.Type() != ":" {
			return w.typeFromNode(child)
		}
	}
	return nil
}

// typeFromClause unwraps constraint/default_type clauses.
func (w *tsWalker) typeFromClause(node *sitter.Node) *TypeExpr {
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		switch child.Type() {
		case "extends", "=":
		default:
			return w.typeFromNode(child)
		}
	}
	return nil
}

// typeFromNode converts a tree-sitter type node to a TypeExpr
// descriptor. Shapes the descriptor model does not cover fall back to
// Unknown with the raw source text.
func (w *tsWalker) typeFromNode(node *sitter.Node) *TypeExpr {
	text := w.text(node)

	switch node.Type() {
	case "predefined_type", "type_identifier", "identifier":
		return &TypeExpr{Kind: TypeExprNamed, Name: text, Text: text}

	case "nested_type_identifier", "member_expression":
		return &TypeExpr{Kind: TypeExprNamed, Name: text, Text: text}

	case "generic_type":
		out := &TypeExpr{Kind: TypeExprNamed, Text: text}
		for i := 0; i < int(node.ChildCount()); i++ {
			child := node.Child(i)
			switch child.Type() {
			case "type_identifier", "nested_type_identifier":
				out.Name = w.text(child)
			case "type_arguments":
				for j := 0; j < int(child.ChildCount()); j++ {
					gc := child.Child(j)
					switch gc.Type() {
					case "<", ">", ",":
					default:
						out.Args = append(out.Args, w.typeFromNode(gc))
					}
				}
			}
		}
		if out.Name == "" {
			return UnknownTypeExpr(text)
		}
		return out

	case "union_type":
		out := &TypeExpr{Kind: TypeExprUnion, Text: text}
		w.collectTypeOperands(node, "union_type", "|", out)
		return out

	case "intersection_type":
		out := &TypeExpr{Kind: TypeExprIntersection, Text: text}
		w.collectTypeOperands(node, "intersection_type", "&", out)
		return out

	case "array_type":
		for i := 0; i < int(node.ChildCount()); i++ {
			child := node.Child(i)
			switch child.Type() {
			case "[", "]":
			default:
				return &TypeExpr{Kind: TypeExprArray, Text: text, Element: w.typeFromNode(child)}
			}
		}
		return UnknownTypeExpr(text)

	case "tuple_type":
		out := &TypeExpr{Kind: TypeExprTuple, Text: text}
		for i := 0; i < int(node.ChildCount()); i++ {
			child := node.Child(i)
			switch child.Type() {
			case "[", "]", ",":
			default:
				out.Members = append(out.Members, w.typeFromNode(child))
			}
		}
		return out

	case "parenthesized_type":
		for i := 0; i < int(node.ChildCount()); i++ {
			child := node.Child(i)
			switch child.Type() {
			case "(", ")":
			default:
				return w.typeFromNode(child)
			}
		}
		return UnknownTypeExpr(text)

	case "object_type":
		return &TypeExpr{
			Kind:          TypeExprObject,
			Text:          text,
			ObjectMembers: w.extractObjectMembers(node, nil),
		}

	case "literal_type":
		return &TypeExpr{Kind: TypeExprLiteral, Text: text}

	default:
		return UnknownTypeExpr(text)
	}
}

// collectTypeOperands flattens nested binary type operators
// (A | B | C parses left-nested) into one member list.
func (w *tsWalker) collectTypeOperands(node *sitter.Node, nodeType, op string, out *TypeExpr) {
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		if child.Type() == op {
			continue
		}
		if child.Type() == nodeType {
			w.collectTypeOperands(child, nodeType, op, out)
			continue
		}
		out.Members = append(out.Members, w.typeFromNode(child))
	}
}

// precedingComment returns the parsed doc comment immediately before
// the node, looking through a wrapping export statement.
func (w *tsWalker) precedingComment(node *sitter.Node) *DocComment {
	if node == nil {
		return nil
	}

	prev := node.PrevSibling()
	if prev != nil && prev.Type() == "comment" {
		if doc := ParseDocComment(w.text(prev)); doc != nil {
			return doc
		}
	}

	parent := node.Parent()
	if parent != nil && (parent.Type() == "export_statement" || parent.Type() == "ambient_declaration") {
		return w.precedingComment(parent)
	}

	return nil
}
