package compiler

import "fmt"

// Opcode is a single bytecode instruction tag. The numeric values have no
// meaning beyond identity (they are not shared with any other program's
// bytecode); what matters is that encode.go and dasm.go agree on each
// opcode's operand shape.
type Opcode uint8

const ( //nolint:revive
	SetNull Opcode = iota
	SetTrue
	SetFalse
	Set0
	Set1
	SetNumberU8
	SetNumberNegU8

	LoadFloat
	LoadInt
	LoadString
	LoadNonLocal

	Copy

	Negate
	Not

	Add
	Subtract
	Multiply
	Divide
	Remainder

	AddAssign
	SubtractAssign
	MultiplyAssign
	DivideAssign
	RemainderAssign

	Less
	LessOrEqual
	Greater
	GreaterOrEqual
	Equal
	NotEqual

	Jump
	JumpBack
	JumpIfTrue
	JumpIfFalse

	Call

	Return
	Yield
	Throw

	TryStart
	TryEnd

	Capture
	Function

	MakeIterator
	IterNext
	IterNextTemp
	IterNextQuiet
	IterUnpack

	Range
	RangeInclusive
	RangeFrom
	RangeTo
	RangeToInclusive
	RangeFull

	SequenceStart
	SequencePush
	SequencePushN
	SequenceToList
	SequenceToTuple

	MakeMap
	MakeTempTuple
	MapInsert

	MetaInsert
	MetaInsertNamed
	MetaExport
	MetaExportNamed
	ValueExport

	Index
	SetIndex
	SliceFrom
	SliceTo
	TempIndex

	Access
	AccessString

	StringStart
	StringPush
	StringFinish

	AssertType
	CheckType

	CheckSizeEqual
	CheckSizeMin

	Size

	Debug

	Import

	opcodeCount
)

var opcodeNames = [...]string{
	"SetNull", "SetTrue", "SetFalse", "Set0", "Set1", "SetNumberU8", "SetNumberNegU8",
	"LoadFloat", "LoadInt", "LoadString", "LoadNonLocal",
	"Copy",
	"Negate", "Not",
	"Add", "Subtract", "Multiply", "Divide", "Remainder",
	"AddAssign", "SubtractAssign", "MultiplyAssign", "DivideAssign", "RemainderAssign",
	"Less", "LessOrEqual", "Greater", "GreaterOrEqual", "Equal", "NotEqual",
	"Jump", "JumpBack", "JumpIfTrue", "JumpIfFalse",
	"Call",
	"Return", "Yield", "Throw",
	"TryStart", "TryEnd",
	"Capture", "Function",
	"MakeIterator", "IterNext", "IterNextTemp", "IterNextQuiet", "IterUnpack",
	"Range", "RangeInclusive", "RangeFrom", "RangeTo", "RangeToInclusive", "RangeFull",
	"SequenceStart", "SequencePush", "SequencePushN", "SequenceToList", "SequenceToTuple",
	"MakeMap", "MakeTempTuple", "MapInsert",
	"MetaInsert", "MetaInsertNamed", "MetaExport", "MetaExportNamed", "ValueExport",
	"Index", "SetIndex", "SliceFrom", "SliceTo", "TempIndex",
	"Access", "AccessString",
	"StringStart", "StringPush", "StringFinish",
	"AssertType", "CheckType",
	"CheckSizeEqual", "CheckSizeMin",
	"Size",
	"Debug",
	"Import",
}

func (op Opcode) String() string {
	if int(op) < len(opcodeNames) {
		return opcodeNames[op]
	}
	return fmt.Sprintf("Opcode(%d)", op)
}

// operandShape describes, for disassembly purposes, the fixed 1-byte
// register/immediate operands an opcode takes (excluding any trailing
// off16 or varuint, which are tracked separately since they are not
// uniform 1-byte slots).
type operandShape struct {
	fixedBytes int  // number of plain 1-byte operands (registers, small ints)
	hasOff16   bool // followed by a 2-byte jump distance
	hasVarU32  bool // followed by a varuint (constant index or size hint)
}

var opcodeShapes = map[Opcode]operandShape{
	SetNull:         {fixedBytes: 1},
	SetTrue:         {fixedBytes: 1},
	SetFalse:        {fixedBytes: 1},
	Set0:            {fixedBytes: 1},
	Set1:            {fixedBytes: 1},
	SetNumberU8:     {fixedBytes: 2},
	SetNumberNegU8:  {fixedBytes: 2},
	LoadFloat:       {fixedBytes: 1, hasVarU32: true},
	LoadInt:         {fixedBytes: 1, hasVarU32: true},
	LoadString:      {fixedBytes: 1, hasVarU32: true},
	LoadNonLocal:    {fixedBytes: 1, hasVarU32: true},
	Copy:            {fixedBytes: 2},
	Negate:          {fixedBytes: 2},
	Not:             {fixedBytes: 2},
	Add:             {fixedBytes: 3},
	Subtract:        {fixedBytes: 3},
	Multiply:        {fixedBytes: 3},
	Divide:          {fixedBytes: 3},
	Remainder:       {fixedBytes: 3},
	AddAssign:       {fixedBytes: 2},
	SubtractAssign:  {fixedBytes: 2},
	MultiplyAssign:  {fixedBytes: 2},
	DivideAssign:    {fixedBytes: 2},
	RemainderAssign: {fixedBytes: 2},
	Less:            {fixedBytes: 3},
	LessOrEqual:     {fixedBytes: 3},
	Greater:         {fixedBytes: 3},
	GreaterOrEqual:  {fixedBytes: 3},
	Equal:           {fixedBytes: 3},
	NotEqual:        {fixedBytes: 3},
	Jump:            {hasOff16: true},
	JumpBack:        {hasOff16: true},
	JumpIfTrue:      {fixedBytes: 1, hasOff16: true},
	JumpIfFalse:     {fixedBytes: 1, hasOff16: true},
	Call:            {fixedBytes: 4},
	Return:          {fixedBytes: 1},
	Yield:           {fixedBytes: 1},
	Throw:           {fixedBytes: 1},
	TryStart:        {fixedBytes: 1, hasOff16: true},
	TryEnd:          {},
	Capture:         {fixedBytes: 3},
	Function:        {fixedBytes: 4, hasOff16: true},
	MakeIterator:    {fixedBytes: 2},
	IterNext:        {fixedBytes: 2, hasOff16: true},
	IterNextTemp:    {fixedBytes: 2, hasOff16: true},
	IterNextQuiet:   {fixedBytes: 3},
	IterUnpack:      {fixedBytes: 2},
	Range:           {fixedBytes: 3},
	RangeInclusive:  {fixedBytes: 3},
	RangeFrom:       {fixedBytes: 2},
	RangeTo:         {fixedBytes: 2},
	RangeToInclusive: {fixedBytes: 2},
	RangeFull:       {fixedBytes: 1},
	SequenceStart:   {hasVarU32: true},
	SequencePush:    {fixedBytes: 1},
	SequencePushN:   {fixedBytes: 2},
	SequenceToList:  {fixedBytes: 1},
	SequenceToTuple: {fixedBytes: 1},
	MakeMap:         {fixedBytes: 1, hasVarU32: true},
	MakeTempTuple:   {fixedBytes: 3},
	MapInsert:       {fixedBytes: 3},
	MetaInsert:      {fixedBytes: 3},
	MetaInsertNamed: {fixedBytes: 2, hasVarU32: true},
	MetaExport:      {fixedBytes: 2},
	MetaExportNamed: {fixedBytes: 1, hasVarU32: true},
	ValueExport:     {fixedBytes: 1, hasVarU32: true},
	Index:           {fixedBytes: 3},
	SetIndex:        {fixedBytes: 3},
	SliceFrom:       {fixedBytes: 3},
	SliceTo:         {fixedBytes: 3},
	TempIndex:       {fixedBytes: 3},
	Access:          {fixedBytes: 2, hasVarU32: true},
	AccessString:    {fixedBytes: 3},
	StringStart:     {hasVarU32: true},
	StringPush:      {fixedBytes: 2},
	StringFinish:    {fixedBytes: 1},
	AssertType:      {fixedBytes: 1, hasVarU32: true},
	CheckType:       {fixedBytes: 1, hasOff16: true, hasVarU32: true},
	CheckSizeEqual:  {fixedBytes: 2},
	CheckSizeMin:    {fixedBytes: 2},
	Size:            {fixedBytes: 2},
	Debug:           {fixedBytes: 1, hasVarU32: true},
	Import:          {fixedBytes: 1},
}
