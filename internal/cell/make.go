package cell

// Init_* constructors mirror the embedding API named in spec §6.1
// (Init_Integer, Init_Text, Init_Action, ...): small value constructors
// natives and the host use to fill an output cell.

func Init_Integer(i int64) Cell {
	return Cell{Heart: HeartInteger, I: i}
}

func Init_Space() Cell {
	return Cell{Heart: HeartSpace}
}

// Init_Word builds an unbound WORD! cell over the given symbol stub.
func Init_Word(sym StubRef) Cell {
	return Cell{Heart: HeartWord, Node1: sym}
}

func Init_SetWord(sym StubRef) Cell {
	return Cell{Heart: HeartSetWord, Node1: sym}
}

func Init_GetWord(sym StubRef) Cell {
	return Cell{Heart: HeartGetWord, Node1: sym}
}

// Init_Block wraps a SOURCE-flavor stub (array) as a BLOCK!.
func Init_Block(arr StubRef) Cell {
	return Cell{Heart: HeartBlock, Node1: arr}
}

func Init_Group(arr StubRef) Cell {
	return Cell{Heart: HeartGroup, Node1: arr}
}

// Init_Chain wraps a SOURCE-flavor stub as a CHAIN! — the GET-/SET-
// decorated sequence form (see internal/stepper's dispatchChain).
func Init_Chain(arr StubRef) Cell {
	return Cell{Heart: HeartChain, Node1: arr}
}

// Init_Tuple wraps a SOURCE-flavor stub as a TUPLE!.
func Init_Tuple(arr StubRef) Cell {
	return Cell{Heart: HeartTuple, Node1: arr}
}

// Init_Path wraps a SOURCE-flavor stub as a PATH!.
func Init_Path(arr StubRef) Cell {
	return Cell{Heart: HeartPath, Node1: arr}
}

// Init_Comma builds the literal (non-antiform) COMMA! token a `,` in
// source reads as; evaluating it is what produces the GHOST antiform.
func Init_Comma() Cell {
	return Cell{Heart: HeartComma}
}

func Init_Text(strand StubRef) Cell {
	return Cell{Heart: HeartText, Node1: strand}
}

// Init_Frame wraps a varlist as a FRAME!; phase and coupling travel in
// Node1 (varlist) and Node2 (coupling/binding object), matching the
// rootvar-identifies-the-container discipline of spec §3.2/§3.3.
func Init_Frame(varlist StubRef) Cell {
	return Cell{Heart: HeartFrame, Node1: varlist}
}

// Init_Action builds the antiform-FRAME value that represents a
// callable action.
func Init_Action(varlist StubRef) Cell {
	return Init_Frame(varlist).Antiformize()
}

// Init_Warning wraps an error context as the WARNING! in-band value.
func Init_Warning(ctxVarlist StubRef) Cell {
	return Cell{Heart: HeartWarning, Node1: ctxVarlist}
}

// Init_Error produces the antiform-WARNING evaluator signal.
func Init_Error(ctxVarlist StubRef) Cell {
	return Init_Warning(ctxVarlist).Antiformize()
}

// Init_Null and Init_Okay build the canonical logic antiforms: an
// antiform WORD bound to a dedicated interned symbol (spec §6.2). The
// caller supplies the interned "null"/"okay" symbol stub.
func Init_Null(nullSym StubRef) Cell {
	return Init_Word(nullSym).Antiformize()
}

func Init_Okay(okaySym StubRef) Cell {
	return Init_Word(okaySym).Antiformize()
}

// Init_Void is the antiform SPACE value representing an absent result.
func Init_Void() Cell {
	return Init_Space().Antiformize()
}

// Init_Ghost is the antiform COMMA "barrier" value.
func Init_Ghost() Cell {
	return Cell{Heart: HeartComma}.Antiformize()
}

// Init_Splice wraps a GROUP's contents as a spreadable antiform.
func Init_Splice(arr StubRef) Cell {
	return Init_Group(arr).Antiformize()
}

// Init_Pack wraps an array of lifted cells as the antiform-BLOCK
// multi-return vehicle.
func Init_Pack(arr StubRef) Cell {
	return Init_Block(arr).Antiformize()
}
