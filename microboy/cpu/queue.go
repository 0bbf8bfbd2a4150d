package cpu

// queueCapacity bounds the follow-up steps of any instruction. The longest
// chain (CALL nn) needs 5.
const queueCapacity = 6

// microOp is one machine cycle of work. It performs at most one bus access.
type microOp func(c *CPU, bus Bus)

// microQueue is a fixed size FIFO of pending micro-steps.
type microQueue struct {
	ops  [queueCapacity]microOp
	head uint8
	size uint8
}

func (q *microQueue) load(steps []microOp) {
	q.head = 0
	q.size = uint8(copy(q.ops[:], steps))
}

func (q *microQueue) pop() microOp {
	op := q.ops[q.head]
	q.head++
	q.size--
	return op
}

func (q *microQueue) clear() {
	q.head = 0
	q.size = 0
}

func (q *microQueue) empty() bool {
	return q.size == 0
}

func (q *microQueue) len() int {
	return int(q.size)
}

// instruction is the decoded instruction in flight: its template, the bytes
// fetched so far and the steps left to run.
type instruction struct {
	opcode uint16 // 0xCBxx for prefixed opcodes
	tmpl   *template
	lo, hi uint8
	queue  microQueue
}

func (in *instruction) reset(opcode uint16, t *template) {
	in.opcode = opcode
	in.tmpl = t
	in.lo, in.hi = 0, 0
	in.queue.load(t.steps)
}

// word combines the two fetched bytes.
func (in *instruction) word() uint16 {
	return uint16(in.hi)<<8 | uint16(in.lo)
}
