package learning

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/terra-clan/learnpath/internal/keys"
	"github.com/terra-clan/learnpath/internal/models"
	"github.com/terra-clan/learnpath/internal/storage"
)

func ptr[T any](v T) *T { return &v }

func TestUpdateProgressMergeIsFieldAssociative(t *testing.T) {
	base := Reduce(State{}, SetLearningPath{Path: models.LearningPath{openings}})

	stepwise := Reduce(base, UpdateProgress{TechniqueID: "3", Patch: models.ProgressPatch{Completed: ptr(true)}})
	stepwise = Reduce(stepwise, UpdateProgress{TechniqueID: "3", Patch: models.ProgressPatch{Progress: ptr(1.0)}})

	combined := Reduce(base, UpdateProgress{TechniqueID: "3", Patch: models.ProgressPatch{Completed: ptr(true), Progress: ptr(1.0)}})

	want := models.ProgressEntry{Completed: true, Progress: 1}
	assert.Equal(t, want, stepwise.Progress["3"])
	assert.Equal(t, stepwise.Progress["3"], combined.Progress["3"])
}

func TestUpdateProgressMissingEntryStartsFromZero(t *testing.T) {
	s := Reduce(State{}, UpdateProgress{TechniqueID: "x", Patch: models.ProgressPatch{Skipped: ptr(true)}})
	assert.Equal(t, models.ProgressEntry{Skipped: true}, s.Progress["x"])
}

func TestUpdateProgressDoesNotEnforceExclusivity(t *testing.T) {
	s := Reduce(State{}, UpdateProgress{TechniqueID: "x", Patch: models.ProgressPatch{Completed: ptr(true)}})
	s = Reduce(s, UpdateProgress{TechniqueID: "x", Patch: models.ProgressPatch{Skipped: ptr(true)}})

	entry := s.Progress["x"]
	assert.True(t, entry.Completed)
	assert.True(t, entry.Skipped)
	assert.Equal(t, models.ProgressCompleted, entry.Status())
}

func TestUpdateProgressClampsRatio(t *testing.T) {
	s := Reduce(State{}, UpdateProgress{TechniqueID: "x", Patch: models.ProgressPatch{Progress: ptr(1.7)}})
	assert.Equal(t, 1.0, s.Progress["x"].Progress)
	s = Reduce(s, UpdateProgress{TechniqueID: "x", Patch: models.ProgressPatch{Progress: ptr(-3.0)}})
	assert.Equal(t, 0.0, s.Progress["x"].Progress)
}

func TestReduceDoesNotMutateInput(t *testing.T) {
	before := Reduce(State{}, SetLearningPath{Path: models.LearningPath{openings}})
	snapshot := before.Clone()

	_ = Reduce(before, UpdateProgress{TechniqueID: "3", Patch: models.ProgressPatch{Completed: ptr(true)}})
	if diff := cmp.Diff(snapshot, before); diff != "" {
		t.Errorf("input state mutated (-want +got):\n%s", diff)
	}
}

func TestSelectionChangesClearPath(t *testing.T) {
	s := Reduce(State{}, SelectHobby{Hobby: chess})
	s = Reduce(s, SelectLevel{Level: casual})
	s = Reduce(s, SetLearningPath{Path: models.LearningPath{openings}})
	require.Len(t, s.Path, 1)

	same := Reduce(s, SelectLevel{Level: casual})
	assert.Len(t, same.Path, 1, "reselecting the same level keeps the path")

	s = Reduce(s, SelectLevel{Level: pro})
	assert.Empty(t, s.Path)
	assert.Equal(t, "pro", s.Level.ID)

	s = Reduce(s, SelectHobby{Hobby: models.Hobby{ID: "poker", Name: "Poker"}})
	assert.Nil(t, s.Level)

	assert.Equal(t, State{}, Reduce(s, Reset{}))
}

func TestSummary(t *testing.T) {
	path := models.LearningPath{{ID: "1"}, {ID: "2"}, {ID: "3"}, {ID: "4"}}
	s := Reduce(State{}, SetLearningPath{Path: path})
	s = Reduce(s, UpdateProgress{TechniqueID: "1", Patch: models.ProgressPatch{Completed: ptr(true)}})
	s = Reduce(s, UpdateProgress{TechniqueID: "2", Patch: models.ProgressPatch{Skipped: ptr(true)}})

	assert.Equal(t, models.ProgressSummary{Total: 4, Completed: 1, Skipped: 1, Ratio: 0.25}, s.Summary())
}

func TestProgressStorePersistsWhenSelected(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	persister := NewPersister(store)
	ps := NewProgressStore(persister)

	ps.Dispatch(UpdateProgress{TechniqueID: "3", Patch: models.ProgressPatch{Completed: ptr(true)}})
	persister.Wait()
	assert.Equal(t, 0, store.Len(), "nothing is written without a hobby and level")

	ps.Dispatch(SelectHobby{Hobby: chess})
	ps.Dispatch(SelectLevel{Level: casual})
	ps.Dispatch(SetLearningPath{Path: models.LearningPath{openings}})
	persister.Wait()
	assert.Equal(t, 0, store.Len(), "loading a path does not write progress")

	st := ps.Dispatch(UpdateProgress{TechniqueID: "3", Patch: models.ProgressPatch{Progress: ptr(0.5)}})
	persister.Wait()

	var stored models.ProgressMap
	require.NoError(t, storage.GetJSON(ctx, store, keys.ProgressKey("chess", "casual"), &stored))
	assert.Equal(t, st.Progress, stored)
	assert.Equal(t, uint64(5), st.Version)
}

func TestPersisterNewestSnapshotWins(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	persister := NewPersister(store)
	key := keys.ProgressKey("chess", "pro")

	for i := 0; i < 50; i++ {
		persister.Save(key, models.ProgressMap{"seq": {Progress: float64(i) / 100}})
	}
	persister.Wait()

	var stored models.ProgressMap
	require.NoError(t, storage.GetJSON(ctx, store, key, &stored))
	assert.Equal(t, 0.49, stored["seq"].Progress)
}

func TestPersisterForgetsDrainedKeys(t *testing.T) {
	store := storage.NewMemoryStore()
	persister := NewPersister(store)

	for i := 0; i < 20; i++ {
		key := keys.ProgressKey("chess", fmt.Sprintf("level-%d", i))
		persister.Save(key, models.ProgressMap{"1": {Completed: true}})
		persister.Save(key, models.ProgressMap{"1": {Skipped: true}})
	}
	persister.Wait()

	assert.Equal(t, 0, persister.tracked())
	assert.Equal(t, 20, store.Len())

	key := keys.ProgressKey("chess", "level-0")
	persister.Save(key, models.ProgressMap{"1": {Progress: 0.75}})
	persister.Wait()

	var stored models.ProgressMap
	require.NoError(t, storage.GetJSON(context.Background(), store, key, &stored))
	assert.Equal(t, models.ProgressMap{"1": {Progress: 0.75}}, stored)
}

func TestTryDispatchRefusesProgressOffPath(t *testing.T) {
	store := storage.NewMemoryStore()
	persister := NewPersister(store)
	ps := NewProgressStore(persister)

	ps.Dispatch(SelectHobby{Hobby: chess})
	ps.Dispatch(SelectLevel{Level: casual})

	_, err := ps.TryDispatch(UpdateProgress{TechniqueID: "3", Patch: models.ProgressPatch{Completed: ptr(true)}})
	assert.ErrorIs(t, err, ErrPathNotLoaded)

	ps.Dispatch(SetLearningPath{Path: models.LearningPath{openings}})
	_, err = ps.TryDispatch(UpdateProgress{TechniqueID: "99", Patch: models.ProgressPatch{Completed: ptr(true)}})
	assert.ErrorIs(t, err, ErrTechniqueNotFound)

	st, err := ps.TryDispatch(UpdateProgress{TechniqueID: "3", Patch: models.ProgressPatch{Completed: ptr(true)}})
	require.NoError(t, err)
	assert.True(t, st.Progress["3"].Completed)

	// a level change clears the path, so a late update for the old path is refused
	before := ps.Dispatch(SelectLevel{Level: pro})
	st, err = ps.TryDispatch(UpdateProgress{TechniqueID: "3", Patch: models.ProgressPatch{Skipped: ptr(true)}})
	assert.ErrorIs(t, err, ErrPathNotLoaded)
	assert.Equal(t, before.Version, st.Version)
	assert.Nil(t, st.Progress)

	persister.Wait()
	_, err = store.Get(context.Background(), keys.ProgressKey("chess", "pro"))
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestProgressStoreSubscribe(t *testing.T) {
	ps := NewProgressStore(nil)
	ch, cancel := ps.Subscribe(4)

	ps.Dispatch(SelectHobby{Hobby: chess})
	ps.Dispatch(SelectLevel{Level: casual})

	first := <-ch
	second := <-ch
	assert.Equal(t, uint64(1), first.Version)
	assert.Equal(t, uint64(2), second.Version)
	assert.Equal(t, "casual", second.Level.ID)

	cancel()
	cancel()
	_, open := <-ch
	assert.False(t, open)
}

func TestProgressStoreSlowSubscriberDoesNotBlock(t *testing.T) {
	ps := NewProgressStore(nil)
	ch, cancel := ps.Subscribe(1)
	defer cancel()

	for i := 0; i < 10; i++ {
		ps.Dispatch(UpdateProgress{TechniqueID: fmt.Sprint(i), Patch: models.ProgressPatch{Completed: ptr(true)}})
	}

	got := <-ch
	assert.Equal(t, uint64(1), got.Version)
	assert.Equal(t, 10, len(ps.State().Progress))
}

func TestProgressStoreCloseEndsSubscriptions(t *testing.T) {
	ps := NewProgressStore(nil)
	ch, cancel := ps.Subscribe(1)
	ps.Close()

	_, open := <-ch
	assert.False(t, open)
	cancel()

	late, _ := ps.Subscribe(1)
	_, open = <-late
	assert.False(t, open)
}
