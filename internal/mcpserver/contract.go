package mcpserver

// ReviewWorkflowContract describes how an LLM agent should drive review
// sessions against the Mimir tools.
const ReviewWorkflowContract = `# Mimir Review Workflow Contract

Mimir schedules spaced-repetition cards with the FSRS memory model. The
agent drives the session; Mimir decides *when* each card comes back.

## Card types

- **fact**: a fixed question/answer pair. Present the question verbatim and
  compare the user's response against the stored answer.
- **concept**: a free-form description of something to understand. Mimir
  stores only the description; the agent generates a fresh, varied question
  from it on every review (definition, example, application, comparison)
  so the user learns the concept rather than memorizing one phrasing.

## Session loop

1. Call ` + "`get_next_due_card`" + `. An empty list means nothing is due: stop,
   do not invent reviews.
2. Quiz the user on the card (see card types above). Do not reveal the
   answer before the user responds.
3. Grade the response together with the user and call ` + "`review_card`" + ` with a
   rating:
   - 1 (Again): could not recall
   - 2 (Hard): recalled with significant difficulty
   - 3 (Good): recalled with some effort
   - 4 (Easy): recalled effortlessly
4. Repeat from step 1.

## Rules

1. **One rating per presentation.** Never call ` + "`review_card`" + ` twice for the
   same showing of a card.
2. **Ratings come from the user's actual recall**, not from how hard the
   card looks. When unsure, ask the user to self-grade on the 1-4 scale.
3. **Do not edit cards during review.** Content changes go through
   ` + "`update_card`" + ` outside the session, and never alter scheduling state.
4. **Scheduling is Mimir's job.** Never skip a card because it was seen
   recently; if it is due, the model wants it reviewed.
5. New cards are due immediately after ` + "`add_card`" + `.
`
