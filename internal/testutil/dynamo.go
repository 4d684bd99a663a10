// Package testutil holds in-memory fakes of the AWS clients used in unit tests.
package testutil

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"

	dyn "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// Table is one in-memory DynamoDB table.
type Table struct {
	PK      string
	SK      string
	Indexes map[string]Index
	Items   map[string]map[string]types.AttributeValue
}

// Index describes a secondary index key schema.
type Index struct {
	PK string
	SK string
}

// FakeDynamo is a small in-memory DynamoDB supporting the condition and update
// expressions the stores issue. It is not a general expression engine.
type FakeDynamo struct {
	mu     sync.Mutex
	tables map[string]*Table
	errs   map[string][]error
	calls  map[string]int
}

func NewFakeDynamo() *FakeDynamo {
	return &FakeDynamo{
		tables: map[string]*Table{},
		errs:   map[string][]error{},
		calls:  map[string]int{},
	}
}

// CreateTable registers a table keyed by pk (and sk when non-empty).
func (f *FakeDynamo) CreateTable(name, pk, sk string) *FakeDynamo {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tables[name] = &Table{
		PK:      pk,
		SK:      sk,
		Indexes: map[string]Index{},
		Items:   map[string]map[string]types.AttributeValue{},
	}
	return f
}

// AddIndex registers a secondary index on an existing table.
func (f *FakeDynamo) AddIndex(table, index, pk, sk string) *FakeDynamo {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tables[table].Indexes[index] = Index{PK: pk, SK: sk}
	return f
}

// FailNext queues err to be returned by the next call of op ("PutItem", "GetItem",
// "UpdateItem", "Query").
func (f *FakeDynamo) FailNext(op string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.errs[op] = append(f.errs[op], err)
}

// Calls returns how many times op was invoked.
func (f *FakeDynamo) Calls(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[op]
}

// Seed stores item without any condition.
func (f *FakeDynamo) Seed(table string, item map[string]types.AttributeValue) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t := f.tables[table]
	k, err := t.keyOf(item)
	if err != nil {
		panic(err)
	}
	t.Items[k] = copyItem(item)
}

// Item returns a copy of the stored item for the given key values, or nil.
func (f *FakeDynamo) Item(table string, keyValues ...string) map[string]types.AttributeValue {
	f.mu.Lock()
	defer f.mu.Unlock()
	item, ok := f.tables[table].Items[strings.Join(keyValues, "|")]
	if !ok {
		return nil
	}
	return copyItem(item)
}

// Count returns the number of items stored in table.
func (f *FakeDynamo) Count(table string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.tables[table].Items)
}

func (f *FakeDynamo) begin(op string, tableName *string) (*Table, error) {
	f.calls[op]++
	if q := f.errs[op]; len(q) > 0 {
		f.errs[op] = q[1:]
		return nil, q[0]
	}
	if tableName == nil {
		return nil, errors.New("missing table name")
	}
	t, ok := f.tables[*tableName]
	if !ok {
		return nil, &types.ResourceNotFoundException{Message: tableName}
	}
	return t, nil
}

func (f *FakeDynamo) PutItem(ctx context.Context, params *dyn.PutItemInput, optFns ...func(*dyn.Options)) (*dyn.PutItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, err := f.begin("PutItem", params.TableName)
	if err != nil {
		return nil, err
	}
	k, err := t.keyOf(params.Item)
	if err != nil {
		return nil, err
	}
	existing := t.Items[k]
	if err := checkCondition(params.ConditionExpression, existing, params.ExpressionAttributeNames, params.ExpressionAttributeValues, params.ReturnValuesOnConditionCheckFailure); err != nil {
		return nil, err
	}
	t.Items[k] = copyItem(params.Item)
	return &dyn.PutItemOutput{}, nil
}

func (f *FakeDynamo) GetItem(ctx context.Context, params *dyn.GetItemInput, optFns ...func(*dyn.Options)) (*dyn.GetItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, err := f.begin("GetItem", params.TableName)
	if err != nil {
		return nil, err
	}
	k, err := t.keyOf(params.Key)
	if err != nil {
		return nil, err
	}
	item, ok := t.Items[k]
	if !ok {
		return &dyn.GetItemOutput{}, nil
	}
	return &dyn.GetItemOutput{Item: copyItem(item)}, nil
}

func (f *FakeDynamo) UpdateItem(ctx context.Context, params *dyn.UpdateItemInput, optFns ...func(*dyn.Options)) (*dyn.UpdateItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, err := f.begin("UpdateItem", params.TableName)
	if err != nil {
		return nil, err
	}
	k, err := t.keyOf(params.Key)
	if err != nil {
		return nil, err
	}
	existing := t.Items[k]
	if err := checkCondition(params.ConditionExpression, existing, params.ExpressionAttributeNames, params.ExpressionAttributeValues, params.ReturnValuesOnConditionCheckFailure); err != nil {
		return nil, err
	}

	item := copyItem(existing)
	if item == nil {
		item = copyItem(params.Key)
	}
	if params.UpdateExpression != nil {
		if err := applySet(*params.UpdateExpression, item, params.ExpressionAttributeNames, params.ExpressionAttributeValues); err != nil {
			return nil, err
		}
	}
	t.Items[k] = item
	out := &dyn.UpdateItemOutput{}
	if params.ReturnValues == types.ReturnValueAllNew {
		out.Attributes = copyItem(item)
	}
	return out, nil
}

func (f *FakeDynamo) Query(ctx context.Context, params *dyn.QueryInput, optFns ...func(*dyn.Options)) (*dyn.QueryOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, err := f.begin("Query", params.TableName)
	if err != nil {
		return nil, err
	}
	pkAttr, skAttr := t.PK, t.SK
	if params.IndexName != nil {
		idx, ok := t.Indexes[*params.IndexName]
		if !ok {
			return nil, fmt.Errorf("unknown index %s", *params.IndexName)
		}
		pkAttr, skAttr = idx.PK, idx.SK
	}
	if params.KeyConditionExpression == nil {
		return nil, errors.New("missing key condition")
	}
	lhs, rhs, ok := strings.Cut(*params.KeyConditionExpression, " = ")
	if !ok {
		return nil, fmt.Errorf("unsupported key condition %q", *params.KeyConditionExpression)
	}
	if resolveName(strings.TrimSpace(lhs), params.ExpressionAttributeNames) != pkAttr {
		return nil, fmt.Errorf("key condition must target %s", pkAttr)
	}
	want, ok := params.ExpressionAttributeValues[strings.TrimSpace(rhs)]
	if !ok {
		return nil, fmt.Errorf("missing value %s", rhs)
	}

	var matched []map[string]types.AttributeValue
	for _, item := range t.Items {
		if v, ok := item[pkAttr]; ok && avEqual(v, want) {
			matched = append(matched, copyItem(item))
		}
	}
	forward := params.ScanIndexForward == nil || *params.ScanIndexForward
	sort.Slice(matched, func(i, j int) bool {
		a, b := avString(matched[i][skAttr]), avString(matched[j][skAttr])
		if forward {
			return a < b
		}
		return a > b
	})
	if params.Limit != nil && int(*params.Limit) < len(matched) {
		matched = matched[:*params.Limit]
	}
	return &dyn.QueryOutput{Items: matched, Count: int32(len(matched))}, nil
}

func (t *Table) keyOf(item map[string]types.AttributeValue) (string, error) {
	pk, ok := item[t.PK]
	if !ok {
		return "", fmt.Errorf("missing key attribute %s", t.PK)
	}
	if t.SK == "" {
		return avString(pk), nil
	}
	sk, ok := item[t.SK]
	if !ok {
		return "", fmt.Errorf("missing key attribute %s", t.SK)
	}
	return avString(pk) + "|" + avString(sk), nil
}

func checkCondition(expr *string, existing map[string]types.AttributeValue, names map[string]string, values map[string]types.AttributeValue, rv types.ReturnValuesOnConditionCheckFailure) error {
	if expr == nil || *expr == "" {
		return nil
	}
	ok, err := evalCondition(*expr, existing, names, values)
	if err != nil {
		return err
	}
	if ok {
		return nil
	}
	msg := "The conditional request failed"
	ccf := &types.ConditionalCheckFailedException{Message: &msg}
	if rv == types.ReturnValuesOnConditionCheckFailureAllOld {
		ccf.Item = copyItem(existing)
	}
	return ccf
}

// applySet supports "SET a = v, ..." where v is a value placeholder, an
// if_not_exists(path, :v) call, or two such operands joined by + or -.
func applySet(expr string, item map[string]types.AttributeValue, names map[string]string, values map[string]types.AttributeValue) error {
	rest, ok := strings.CutPrefix(strings.TrimSpace(expr), "SET ")
	if !ok {
		return fmt.Errorf("unsupported update expression %q", expr)
	}
	current := copyItem(item)
	for _, clause := range splitTopLevel(rest, ',') {
		lhs, rhs, ok := strings.Cut(clause, "=")
		if !ok {
			return fmt.Errorf("bad SET clause %q", clause)
		}
		v, err := setValue(strings.TrimSpace(rhs), current, names, values)
		if err != nil {
			return err
		}
		item[resolveName(strings.TrimSpace(lhs), names)] = v
	}
	return nil
}

func setValue(expr string, item map[string]types.AttributeValue, names map[string]string, values map[string]types.AttributeValue) (types.AttributeValue, error) {
	for _, op := range []byte{'+', '-'} {
		if parts := splitTopLevel(expr, rune(op)); len(parts) == 2 {
			a, err := setValue(strings.TrimSpace(parts[0]), item, names, values)
			if err != nil {
				return nil, err
			}
			b, err := setValue(strings.TrimSpace(parts[1]), item, names, values)
			if err != nil {
				return nil, err
			}
			return addNumbers(a, b, op == '-')
		}
	}

	if args, ok := strings.CutPrefix(expr, "if_not_exists("); ok {
		args, ok = strings.CutSuffix(strings.TrimSpace(args), ")")
		parts := splitTopLevel(args, ',')
		if !ok || len(parts) != 2 {
			return nil, fmt.Errorf("bad if_not_exists %q", expr)
		}
		if v, ok := item[resolveName(strings.TrimSpace(parts[0]), names)]; ok {
			return v, nil
		}
		return setValue(strings.TrimSpace(parts[1]), item, names, values)
	}

	if strings.HasPrefix(expr, ":") {
		v, ok := values[expr]
		if !ok {
			return nil, fmt.Errorf("missing value %s", expr)
		}
		return v, nil
	}
	v, ok := item[resolveName(expr, names)]
	if !ok {
		return nil, fmt.Errorf("attribute %s does not exist", expr)
	}
	return v, nil
}

func addNumbers(a, b types.AttributeValue, subtract bool) (types.AttributeValue, error) {
	an, aok := a.(*types.AttributeValueMemberN)
	bn, bok := b.(*types.AttributeValueMemberN)
	if !aok || !bok {
		return nil, errors.New("arithmetic on non-number operands")
	}
	x, err := strconv.ParseFloat(an.Value, 64)
	if err != nil {
		return nil, err
	}
	y, err := strconv.ParseFloat(bn.Value, 64)
	if err != nil {
		return nil, err
	}
	if subtract {
		y = -y
	}
	return &types.AttributeValueMemberN{Value: strconv.FormatFloat(x+y, 'f', -1, 64)}, nil
}

// splitTopLevel splits s on sep outside parentheses.
func splitTopLevel(s string, sep rune) []string {
	var parts []string
	depth, start := 0, 0
	for i, r := range s {
		switch {
		case r == '(':
			depth++
		case r == ')':
			depth--
		case r == sep && depth == 0:
			parts = append(parts, s[start:i])
			start = i + 1
		}
	}
	return append(parts, s[start:])
}

func resolveName(tok string, names map[string]string) string {
	if strings.HasPrefix(tok, "#") {
		if n, ok := names[tok]; ok {
			return n
		}
	}
	return tok
}

func copyItem(item map[string]types.AttributeValue) map[string]types.AttributeValue {
	if item == nil {
		return nil
	}
	out := make(map[string]types.AttributeValue, len(item))
	for k, v := range item {
		out[k] = v
	}
	return out
}

func avString(v types.AttributeValue) string {
	switch tv := v.(type) {
	case *types.AttributeValueMemberS:
		return tv.Value
	case *types.AttributeValueMemberN:
		return tv.Value
	case *types.AttributeValueMemberBOOL:
		return fmt.Sprint(tv.Value)
	default:
		return ""
	}
}

func avEqual(a, b types.AttributeValue) bool {
	switch av := a.(type) {
	case *types.AttributeValueMemberS:
		bv, ok := b.(*types.AttributeValueMemberS)
		return ok && av.Value == bv.Value
	case *types.AttributeValueMemberN:
		bv, ok := b.(*types.AttributeValueMemberN)
		return ok && av.Value == bv.Value
	case *types.AttributeValueMemberBOOL:
		bv, ok := b.(*types.AttributeValueMemberBOOL)
		return ok && av.Value == bv.Value
	default:
		return false
	}
}
